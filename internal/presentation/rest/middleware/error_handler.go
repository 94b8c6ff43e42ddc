package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	authapp "reward-server/internal/application/auth"
	"reward-server/internal/domain/leaderboard"
	"reward-server/internal/domain/ledger"
	"reward-server/internal/domain/ratelimit"
	"reward-server/internal/domain/reward"
	"reward-server/internal/domain/wallet"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
	Remaining  *int   `json:"remaining,omitempty"`
}

// domainError ドメインエラーとHTTPレスポンスの対応
type domainError struct {
	target error
	status int
	code   string
	log    string
}

// domainErrors errors.Is で上から順に判定する
var domainErrors = []domainError{
	{wallet.ErrInvalidWalletID, http.StatusBadRequest, "invalid_wallet_id", "Invalid wallet id"},
	{reward.ErrInvalidSteps, http.StatusBadRequest, "invalid_steps", "Invalid steps"},
	{reward.ErrInvalidScore, http.StatusBadRequest, "invalid_score", "Invalid score"},
	{reward.ErrInvalidLevel, http.StatusBadRequest, "invalid_level", "Invalid level"},
	{reward.ErrInvalidBlocks, http.StatusBadRequest, "invalid_blocks", "Invalid blocks destroyed"},
	{reward.ErrUnknownGame, http.StatusBadRequest, "unknown_game", "Unknown game"},
	{leaderboard.ErrUnknownCategory, http.StatusBadRequest, "unknown_category", "Unknown leaderboard category"},
	{ledger.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", "Invalid amount"},
	{ledger.ErrReasonRequired, http.StatusBadRequest, "reason_required", "Reason required"},
	{ledger.ErrReasonTooLong, http.StatusBadRequest, "reason_too_long", "Reason too long"},
	{ledger.ErrInsufficientPoints, http.StatusBadRequest, "insufficient_points", "Insufficient points"},
	{reward.ErrGameLocked, http.StatusForbidden, "game_locked", "Game locked for tier"},
	{wallet.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found", "Wallet not found"},
	{authapp.ErrAuthDisabled, http.StatusServiceUnavailable, "auth_disabled", "Wallet auth disabled"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// クールダウン中
	var limited *ratelimit.LimitedError
	if errors.As(err, &limited) {
		seconds := limited.RetryAfterSeconds()
		logger.Warn(ctx, "Rate limited", map[string]interface{}{
			"action":      limited.Action.String(),
			"retry_after": seconds,
		})
		c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:      "rate_limited",
			Message:    err.Error(),
			Code:       "cooldown",
			RetryAfter: seconds,
		})
	}

	// 当日上限到達（拒否ポリシー時のみ）
	if errors.Is(err, reward.ErrDailyCapExhausted) {
		logger.Warn(ctx, "Daily cap exhausted", map[string]interface{}{
			"error": err.Error(),
		})
		zero := 0
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:     "rate_limited",
			Message:   err.Error(),
			Code:      "daily_cap_exhausted",
			Remaining: &zero,
		})
	}

	for _, d := range domainErrors {
		if !errors.Is(err, d.target) {
			continue
		}
		logger.Warn(ctx, d.log, map[string]interface{}{
			"error": err.Error(),
		})
		return c.JSON(d.status, ErrorResponse{
			Error:   d.code,
			Message: err.Error(),
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
