package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	rewardapp "reward-server/internal/application/reward"
)

// RewardHandler 報酬関連ハンドラー
type RewardHandler struct {
	rewardService *rewardapp.RewardApplicationService
}

// NewRewardHandler 新しいRewardHandlerを作成
func NewRewardHandler(rewardService *rewardapp.RewardApplicationService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
	}
}

// ClaimSteps 歩数申告ハンドラー
// @Summary 歩数を申告して報酬を受け取る
// @Description 歩数に応じた通貨をティア倍率と当日上限を適用して付与します
// @Tags rewards
// @Accept json
// @Produce json
// @Param wallet path string true "ウォレットID" example(0xabc0001)
// @Param request body ClaimStepsRequest true "歩数申告リクエスト"
// @Success 200 {object} ClaimStepsResponse "付与成功（上限到達時は0）"
// @Failure 400 {object} ErrorResponse "歩数が範囲外"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Failure 429 {object} ErrorResponse "クールダウン中"
// @Router /faucet/steps/{wallet} [post]
func (h *RewardHandler) ClaimSteps(c echo.Context) error {
	var reqBody ClaimStepsRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.rewardService.ClaimSteps(c.Request().Context(), &rewardapp.ClaimStepsRequest{
		WalletID: c.Param("wallet"),
		Steps:    reqBody.Steps,
	})
	if err != nil {
		return err
	}

	remaining := money(resp.DailyCurrencyRemaining)
	return c.JSON(http.StatusOK, ClaimStepsResponse{
		Wallet:                 resp.WalletID,
		StepsCounted:           resp.StepsCounted,
		RewardsEarned:          money(resp.RewardsEarned),
		Capped:                 resp.Capped,
		NewBalance:             money(resp.NewBalance),
		DailyCurrencyRemaining: remaining,
		DailyZwapRemaining:     remaining,
		EntryID:                resp.EntryID,
	})
}

// SubmitGameResult ゲーム結果送信ハンドラー
// @Summary ゲーム結果を送信して報酬を受け取る
// @Description スコア・レベル・破壊ブロック数から通貨とポイントを算出して付与します
// @Tags rewards
// @Accept json
// @Produce json
// @Param wallet path string true "ウォレットID" example(0xabc0001)
// @Param request body GameResultRequest true "ゲーム結果"
// @Success 200 {object} GameResultResponse "付与成功"
// @Failure 400 {object} ErrorResponse "不正なゲーム結果"
// @Failure 403 {object} ErrorResponse "ティアで未解放のゲーム"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Failure 429 {object} ErrorResponse "クールダウン中"
// @Router /games/result/{wallet} [post]
func (h *RewardHandler) SubmitGameResult(c echo.Context) error {
	var reqBody GameResultRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.rewardService.SubmitGameResult(c.Request().Context(), &rewardapp.SubmitGameResultRequest{
		WalletID:        c.Param("wallet"),
		GameType:        reqBody.GameType,
		Score:           reqBody.Score,
		Level:           reqBody.Level,
		BlocksDestroyed: reqBody.BlocksDestroyed,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, GameResultResponse{
		Game:               resp.Game,
		ZwapEarned:         money(resp.CurrencyEarned),
		ZptsEarned:         resp.PointsEarned,
		ZwapCapped:         resp.CurrencyCapped,
		ZptsCapped:         resp.PointsCapped,
		DailyZwapRemaining: money(resp.DailyCurrencyRemaining),
		DailyZptsRemaining: resp.DailyPointsRemaining,
		ZwapBalance:        money(resp.CurrencyBalance),
		ZptsBalance:        resp.PointsBalance,
		EntryID:            resp.EntryID,
	})
}

// ListTiers ティア一覧ハンドラー
// @Summary ティア設定を取得
// @Tags rewards
// @Produce json
// @Success 200 {object} TiersResponse "ティア一覧"
// @Router /tiers [get]
func (h *RewardHandler) ListTiers(c echo.Context) error {
	resp := h.rewardService.ListTiers(c.Request().Context())

	tiers := make([]TierItem, 0, len(resp.Tiers))
	for _, t := range resp.Tiers {
		tiers = append(tiers, TierItem{
			Name:          t.Name,
			Multiplier:    t.Multiplier.StringFixed(1),
			DailyZptsCap:  t.DailyPointsCap,
			DailyZwapCap:  money(t.DailyCurrencyCap),
			UnlockedGames: t.Games,
		})
	}

	return c.JSON(http.StatusOK, TiersResponse{
		Tiers: tiers,
		Games: resp.Games,
	})
}
