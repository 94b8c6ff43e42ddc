package ledger

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxReasonLength reason 列（VARCHAR(255)）に収まる文字数
const MaxReasonLength = 255

// MaxCurrencyAmount 金額列（DECIMAL(20,2)）に収まる最大値
var MaxCurrencyAmount = decimal.RequireFromString("999999999999999999.99")

// Entry 報酬台帳エントリ。作成後は更新も削除もされない
type Entry struct {
	entryID        string
	walletID       string
	currencyAmount decimal.Decimal // 符号付き
	pointsAmount   int64           // 符号付き
	source         Source
	status         Status
	reason         *string
	isAdjustment   bool
	createdAt      time.Time
}

// NewEntry 新しいEntryを作成
func NewEntry(
	entryID string,
	walletID string,
	currencyAmount decimal.Decimal,
	pointsAmount int64,
	source Source,
	status Status,
	reason *string,
	isAdjustment bool,
	createdAt time.Time,
) (*Entry, error) {
	if !source.Valid() {
		return nil, ErrInvalidSource
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if reason != nil && strings.TrimSpace(*reason) == "" {
		reason = nil
	}
	if isAdjustment && reason == nil {
		return nil, ErrReasonRequired
	}
	if err := ValidateReason(reason); err != nil {
		return nil, err
	}
	return &Entry{
		entryID:        entryID,
		walletID:       walletID,
		currencyAmount: currencyAmount,
		pointsAmount:   pointsAmount,
		source:         source,
		status:         status,
		reason:         reason,
		isAdjustment:   isAdjustment,
		createdAt:      createdAt,
	}, nil
}

// ValidateReason 理由が reason 列に収まるか確認
func ValidateReason(reason *string) error {
	if reason != nil && utf8.RuneCountInString(*reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	return nil
}

// MustNewEntry テスト用ヘルパー: NewEntryを呼び出し、エラーが発生した場合はpanicする
func MustNewEntry(
	entryID string,
	walletID string,
	currencyAmount decimal.Decimal,
	pointsAmount int64,
	source Source,
	status Status,
	reason *string,
	isAdjustment bool,
	createdAt time.Time,
) *Entry {
	e, err := NewEntry(entryID, walletID, currencyAmount, pointsAmount, source, status, reason, isAdjustment, createdAt)
	if err != nil {
		panic(err)
	}
	return e
}

// EntryID エントリIDを返す
func (e *Entry) EntryID() string {
	return e.entryID
}

// WalletID ウォレットIDを返す
func (e *Entry) WalletID() string {
	return e.walletID
}

// CurrencyAmount 通貨の増減を返す
func (e *Entry) CurrencyAmount() decimal.Decimal {
	return e.currencyAmount
}

// PointsAmount ポイントの増減を返す
func (e *Entry) PointsAmount() int64 {
	return e.pointsAmount
}

// Source 発生源を返す
func (e *Entry) Source() Source {
	return e.source
}

// Status ステータスを返す
func (e *Entry) Status() Status {
	return e.status
}

// Reason 理由を返す
func (e *Entry) Reason() *string {
	return e.reason
}

// IsAdjustment 管理者調整かどうかを返す
func (e *Entry) IsAdjustment() bool {
	return e.isAdjustment
}

// CreatedAt 作成日時を返す
func (e *Entry) CreatedAt() time.Time {
	return e.createdAt
}
