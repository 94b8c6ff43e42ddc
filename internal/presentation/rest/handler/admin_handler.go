package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "reward-server/internal/application/auth"
	ledgerapp "reward-server/internal/application/ledger"
)

// AdminHandler 管理API用ハンドラー
type AdminHandler struct {
	ledgerService *ledgerapp.LedgerApplicationService
	authService   *authapp.AuthApplicationService
}

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(ledgerService *ledgerapp.LedgerApplicationService, authService *authapp.AuthApplicationService) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
		authService:   authService,
	}
}

// Adjust 管理者調整ハンドラー
// @Summary 残高を手動で調整（管理API）
// @Tags admin
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param request body AdjustmentRequest true "調整リクエスト"
// @Success 201 {object} AdjustmentResponse "調整成功"
// @Failure 400 {object} ErrorResponse "不正な金額または理由なし"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Router /admin/adjustments [post]
func (h *AdminHandler) Adjust(c echo.Context) error {
	var reqBody AdjustmentRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.ledgerService.Adjust(c.Request().Context(), &ledgerapp.AdjustRequest{
		WalletID:    reqBody.Wallet,
		Amount:      reqBody.Amount,
		Currency:    reqBody.Currency,
		Reason:      reqBody.Reason,
		IsDeduction: reqBody.IsDeduction,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, AdjustmentResponse{
		Entry:       toLedgerEntryItem(resp.Entry),
		ZwapBalance: money(resp.CurrencyBalance),
		ZptsBalance: resp.PointsBalance,
	})
}

// Reconcile 台帳照合ハンドラー
// @Summary 台帳合計と残高を照合（管理API）
// @Tags admin
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param wallet path string true "ウォレットID" example(0xabc0001)
// @Success 200 {object} ReconcileResponse "照合結果"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Router /admin/wallets/{wallet}/reconcile [get]
func (h *AdminHandler) Reconcile(c echo.Context) error {
	resp, err := h.ledgerService.Reconcile(c.Request().Context(), &ledgerapp.ReconcileRequest{
		WalletID: c.Param("wallet"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ReconcileResponse{
		Wallet:      resp.WalletID,
		Entries:     resp.Entries,
		LedgerZwap:  money(resp.LedgerCurrency),
		BalanceZwap: money(resp.BalanceCurrency),
		ZwapDrift:   money(resp.CurrencyDrift),
		LedgerZpts:  resp.LedgerPoints,
		BalanceZpts: resp.BalancePoints,
		ZptsDrift:   resp.PointsDrift,
		Consistent:  resp.Consistent,
	})
}

// IssueToken ウォレットトークン発行ハンドラー
// @Summary ウォレット認証トークンを発行（管理API）
// @Tags admin
// @Accept json
// @Produce json
// @Param X-API-Key header string true "APIキー"
// @Param request body IssueTokenRequest true "発行リクエスト"
// @Success 200 {object} IssueTokenResponse "発行成功"
// @Failure 400 {object} ErrorResponse "不正なウォレットID"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Failure 503 {object} ErrorResponse "ウォレット認証が無効"
// @Router /admin/tokens [post]
func (h *AdminHandler) IssueToken(c echo.Context) error {
	var reqBody IssueTokenRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.authService.IssueWalletToken(c.Request().Context(), &authapp.IssueWalletTokenRequest{
		WalletID: reqBody.Wallet,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, IssueTokenResponse{
		Wallet:    resp.WalletID,
		Token:     resp.Token,
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
	})
}
