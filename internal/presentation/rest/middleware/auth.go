package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	authapp "reward-server/internal/application/auth"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

// WalletContextKey 認証済みウォレットIDを保持するechoコンテキストのキー
const WalletContextKey = "wallet_id"

// WalletAuthMiddleware ウォレットJWT認証ミドルウェア
// シークレット未設定の場合は何もしない。トークンの wallet クレームと :wallet パラメータの一致を要求する
func WalletAuthMiddleware(cfg *config.JWTConfig, logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if cfg.Secret == "" {
			return next
		}

		return func(c echo.Context) error {
			ctx := c.Request().Context()

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn(ctx, "Missing authorization header", nil)
				return unauthorized(c, "Missing authorization header")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Warn(ctx, "Invalid authorization header format", nil)
				return unauthorized(c, "Invalid authorization header format")
			}

			opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				return []byte(cfg.Secret), nil
			}, opts...)
			if err != nil || !token.Valid {
				fields := map[string]interface{}{}
				if err != nil {
					fields["error"] = err.Error()
				}
				logger.Warn(ctx, "Invalid token", fields)
				return unauthorized(c, "Invalid or expired token")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Warn(ctx, "Invalid token claims", nil)
				return unauthorized(c, "Invalid token claims")
			}

			walletID, ok := claims[authapp.WalletClaim].(string)
			if !ok || walletID == "" {
				logger.Warn(ctx, "Missing wallet in token claims", nil)
				return unauthorized(c, "Missing wallet in token")
			}

			// パスのウォレットとトークンのウォレットは大文字小文字を区別しない
			if param := c.Param("wallet"); param != "" && !strings.EqualFold(param, walletID) {
				logger.Warn(ctx, "Token wallet does not match path", map[string]interface{}{
					"token_wallet": walletID,
					"path_wallet":  param,
				})
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "Token is not valid for this wallet",
				})
			}

			c.Set(WalletContextKey, strings.ToLower(walletID))

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
