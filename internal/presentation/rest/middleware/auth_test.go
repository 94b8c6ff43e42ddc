package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reward-server/internal/infrastructure/config"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestWalletAuthMiddleware(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret", Issuer: "reward-server"}
	valid := jwt.MapClaims{
		"wallet": "0xabc0001",
		"iss":    "reward-server",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}

	tests := []struct {
		name           string
		cfg            *config.JWTConfig
		authorization  string
		pathWallet     string
		expectedStatus int
		expectedWallet string
	}{
		{
			name:           "正常系: シークレット未設定なら認証しない",
			cfg:            &config.JWTConfig{},
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "正常系: 有効なトークン",
			cfg:            cfg,
			authorization:  "Bearer " + signToken(t, "test-secret", valid),
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusOK,
			expectedWallet: "0xabc0001",
		},
		{
			name:           "正常系: 大文字のパスでも一致",
			cfg:            cfg,
			authorization:  "Bearer " + signToken(t, "test-secret", valid),
			pathWallet:     "0xABC0001",
			expectedStatus: http.StatusOK,
			expectedWallet: "0xabc0001",
		},
		{
			name:           "異常系: ヘッダーなし",
			cfg:            cfg,
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: Bearer形式でない",
			cfg:            cfg,
			authorization:  "Token abc",
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 署名が異なる",
			cfg:            cfg,
			authorization:  "Bearer " + signToken(t, "other-secret", valid),
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 期限切れ",
			cfg:  cfg,
			authorization: "Bearer " + signToken(t, "test-secret", jwt.MapClaims{
				"wallet": "0xabc0001",
				"iss":    "reward-server",
				"exp":    time.Now().Add(-time.Hour).Unix(),
			}),
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 発行者が異なる",
			cfg:  cfg,
			authorization: "Bearer " + signToken(t, "test-secret", jwt.MapClaims{
				"wallet": "0xabc0001",
				"iss":    "someone-else",
				"exp":    time.Now().Add(time.Hour).Unix(),
			}),
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: walletクレームなし",
			cfg:  cfg,
			authorization: "Bearer " + signToken(t, "test-secret", jwt.MapClaims{
				"sub": "0xabc0001",
				"iss": "reward-server",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			pathWallet:     "0xabc0001",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 別のウォレット",
			cfg:            cfg,
			authorization:  "Bearer " + signToken(t, "test-secret", valid),
			pathWallet:     "0xdef0002",
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("wallet")
			c.SetParamValues(tt.pathWallet)

			var gotWallet interface{}
			handler := WalletAuthMiddleware(tt.cfg, newTestLogger())(func(c echo.Context) error {
				gotWallet = c.Get(WalletContextKey)
				return c.String(http.StatusOK, "ok")
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedWallet != "" {
				assert.Equal(t, tt.expectedWallet, gotWallet)
			}
		})
	}
}
