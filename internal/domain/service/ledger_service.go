package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"reward-server/internal/domain/ledger"
	"reward-server/internal/domain/wallet"
)

// Posting 台帳への1件の記帳内容
type Posting struct {
	Currency     decimal.Decimal
	Points       int64
	Source       ledger.Source
	Status       ledger.Status
	Reason       *string
	IsAdjustment bool
	Steps        int64 // 累計歩数への加算
	GamesPlayed  int64 // 累計ゲーム回数への加算
	At           time.Time
}

// LedgerService 台帳追記と残高更新を1組で行うドメインサービス
type LedgerService struct {
	walletRepo wallet.WalletRepository
	ledgerRepo ledger.LedgerRepository
	newID      func() string
}

// NewLedgerService 新しいLedgerServiceを作成
func NewLedgerService(walletRepo wallet.WalletRepository, ledgerRepo ledger.LedgerRepository) *LedgerService {
	return &LedgerService{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		newID:      uuid.NewString,
	}
}

// Apply エントリを追記し、同じ内容をウォレットに加算する
// 呼び出し側のトランザクション内で、行ロック済みのウォレットに対して使うこと
func (s *LedgerService) Apply(ctx context.Context, w *wallet.Wallet, p Posting) (*ledger.Entry, error) {
	entry, err := ledger.NewEntry(
		s.newID(),
		w.ID(),
		p.Currency.Round(2),
		p.Points,
		p.Source,
		p.Status,
		p.Reason,
		p.IsAdjustment,
		p.At.UTC(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	delta := DeltaFor(entry, p.Steps, p.GamesPlayed)
	if !delta.IsZero() {
		if err := s.walletRepo.ApplyDelta(ctx, w.ID(), delta); err != nil {
			return nil, fmt.Errorf("failed to apply wallet delta: %w", err)
		}
	}
	w.Apply(delta)

	return entry, nil
}

// DeltaFor エントリに対応するウォレットの加算量
// 日次カウンターと累計獲得額は活動報酬の正の額だけを数える
func DeltaFor(entry *ledger.Entry, steps, gamesPlayed int64) wallet.Delta {
	d := wallet.Delta{
		Currency:       entry.CurrencyAmount(),
		Points:         entry.PointsAmount(),
		Steps:          steps,
		GamesPlayed:    gamesPlayed,
		CurrencyEarned: decimal.Zero,
		DailyCurrency:  decimal.Zero,
	}
	if entry.Source().IsActivity() && !entry.IsAdjustment() {
		if entry.CurrencyAmount().IsPositive() {
			d.CurrencyEarned = entry.CurrencyAmount()
			d.DailyCurrency = entry.CurrencyAmount()
		}
		if entry.PointsAmount() > 0 {
			d.DailyPoints = entry.PointsAmount()
		}
	}
	return d
}
