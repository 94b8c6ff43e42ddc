package ledger

import "errors"

var (
	// ErrInvalidAmount 無効な金額
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrReasonRequired 調整理由が未指定
	ErrReasonRequired = errors.New("reason is required for adjustments")
	// ErrReasonTooLong 調整理由が長すぎる
	ErrReasonTooLong = errors.New("reason is too long")
	// ErrInsufficientPoints ポイント不足
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrInvalidSource 無効な発生源
	ErrInvalidSource = errors.New("invalid ledger source")
	// ErrInvalidStatus 無効なステータス
	ErrInvalidStatus = errors.New("invalid ledger status")
)
