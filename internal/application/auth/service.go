package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reward-server/internal/domain/wallet"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

// WalletClaim ウォレットIDを保持するクレーム名
const WalletClaim = "wallet"

// ErrAuthDisabled JWTシークレット未設定
var ErrAuthDisabled = errors.New("wallet auth is disabled")

// AuthApplicationService ウォレット認証トークンの発行
type AuthApplicationService struct {
	walletRepo wallet.WalletRepository
	jwtConfig  *config.JWTConfig
	logger     *otelinfra.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(walletRepo wallet.WalletRepository, jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		walletRepo: walletRepo,
		jwtConfig:  jwtConfig,
		logger:     logger,
		tracer:     otel.Tracer("auth-service"),
		now:        time.Now,
	}
}

// IssueWalletToken 既存ウォレット用のJWTを発行
func (s *AuthApplicationService) IssueWalletToken(ctx context.Context, req *IssueWalletTokenRequest) (*IssueWalletTokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthApplicationService.IssueWalletToken")
	defer span.End()

	if s.jwtConfig.Secret == "" {
		span.SetStatus(codes.Error, ErrAuthDisabled.Error())
		return nil, ErrAuthDisabled
	}

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("wallet_id", walletID))

	if _, err := s.walletRepo.FindByID(ctx, walletID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "Failed to load wallet", err, map[string]interface{}{
			"wallet_id": walletID,
		})
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(s.jwtConfig.Expiration)

	claims := jwt.MapClaims{
		WalletClaim: walletID,
		"iss":       s.jwtConfig.Issuer,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to sign token", err, map[string]interface{}{
			"wallet_id": walletID,
		})
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info(ctx, "Wallet token issued", map[string]interface{}{
		"wallet_id":  walletID,
		"expires_at": expiresAt.Unix(),
	})

	return &IssueWalletTokenResponse{
		WalletID:  walletID,
		Token:     tokenString,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
	}, nil
}
