package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	ledgerapp "reward-server/internal/application/ledger"
)

// LedgerHandler 台帳関連ハンドラー
type LedgerHandler struct {
	ledgerService *ledgerapp.LedgerApplicationService
}

// NewLedgerHandler 新しいLedgerHandlerを作成
func NewLedgerHandler(ledgerService *ledgerapp.LedgerApplicationService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// GetHistory 台帳履歴取得ハンドラー
// @Summary ウォレットの台帳履歴を取得
// @Tags ledger
// @Produce json
// @Param wallet path string true "ウォレットID" example(0xabc0001)
// @Param limit query int false "取得件数（既定50、最大100）"
// @Param offset query int false "オフセット"
// @Success 200 {object} LedgerHistoryResponse "台帳履歴"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Router /wallets/{wallet}/ledger [get]
func (h *LedgerHandler) GetHistory(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}

	resp, err := h.ledgerService.History(c.Request().Context(), &ledgerapp.HistoryRequest{
		WalletID: c.Param("wallet"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return err
	}

	entries := make([]LedgerEntryItem, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, toLedgerEntryItem(e))
	}

	return c.JSON(http.StatusOK, LedgerHistoryResponse{
		Wallet:  resp.WalletID,
		Entries: entries,
		Limit:   resp.Limit,
		Offset:  resp.Offset,
	})
}

// ConvertPoints ポイント交換ハンドラー
// @Summary zPtsをZWAPに交換
// @Tags ledger
// @Accept json
// @Produce json
// @Param wallet path string true "ウォレットID" example(0xabc0001)
// @Param request body ConvertRequest true "交換リクエスト"
// @Success 200 {object} ConvertResponse "交換成功"
// @Failure 400 {object} ErrorResponse "ポイント不足または交換額が0"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Router /zpts/convert/{wallet} [post]
func (h *LedgerHandler) ConvertPoints(c echo.Context) error {
	var reqBody ConvertRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.ledgerService.ConvertPoints(c.Request().Context(), &ledgerapp.ConvertPointsRequest{
		WalletID: c.Param("wallet"),
		Points:   reqBody.ZptsAmount,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ConvertResponse{
		Wallet:       resp.WalletID,
		ZptsSpent:    resp.PointsSpent,
		ZwapReceived: money(resp.CurrencyReceived),
		Rate:         resp.Rate,
		ZwapBalance:  money(resp.CurrencyBalance),
		ZptsBalance:  resp.PointsBalance,
		EntryID:      resp.EntryID,
	})
}

func toLedgerEntryItem(e ledgerapp.EntryDTO) LedgerEntryItem {
	return LedgerEntryItem{
		EntryID:      e.EntryID,
		Wallet:       e.WalletID,
		ZwapAmount:   money(e.CurrencyAmount),
		ZptsAmount:   e.PointsAmount,
		Source:       e.Source,
		Status:       e.Status,
		Reason:       e.Reason,
		IsAdjustment: e.IsAdjustment,
		CreatedAt:    e.CreatedAt,
	}
}
