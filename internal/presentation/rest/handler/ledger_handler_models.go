package handler

import "time"

// LedgerEntryItem 台帳エントリ
// @Description 台帳エントリ。金額は符号付き
type LedgerEntryItem struct {
	EntryID      string    `json:"entry_id" example:"6f1c7d1e-3f4b-4d8e-9a51-2b7c0e9f4a10"`
	Wallet       string    `json:"wallet" example:"0xabc0001"`
	ZwapAmount   string    `json:"zwap_amount" example:"90.00"`
	ZptsAmount   int64     `json:"zpts_amount" example:"0"`
	Source       string    `json:"source" example:"walking" enums:"walking,game,admin_adjustment,conversion"`
	Status       string    `json:"status" example:"earned" enums:"earned,claimed,revoked"`
	Reason       *string   `json:"reason,omitempty"`
	IsAdjustment bool      `json:"is_adjustment" example:"false"`
	CreatedAt    time.Time `json:"created_at"`
}

// LedgerHistoryResponse 台帳履歴レスポンス
// @Description 台帳履歴レスポンス（新しい順）
type LedgerHistoryResponse struct {
	Wallet  string            `json:"wallet" example:"0xabc0001"`
	Entries []LedgerEntryItem `json:"entries"`
	Limit   int               `json:"limit" example:"50"`
	Offset  int               `json:"offset" example:"0"`
}

// ConvertRequest ポイント交換リクエスト
// @Description ポイント交換リクエスト
type ConvertRequest struct {
	ZptsAmount int64 `json:"zpts_amount" example:"1500"`
}

// ConvertResponse ポイント交換レスポンス
// @Description ポイント交換レスポンス
type ConvertResponse struct {
	Wallet       string `json:"wallet" example:"0xabc0001"`
	ZptsSpent    int64  `json:"zpts_spent" example:"1500"`
	ZwapReceived string `json:"zwap_received" example:"1.50"`
	Rate         int64  `json:"rate" example:"1000"`
	ZwapBalance  string `json:"zwap_balance" example:"101.50"`
	ZptsBalance  int64  `json:"zpts_balance" example:"0"`
	EntryID      string `json:"entry_id" example:"6f1c7d1e-3f4b-4d8e-9a51-2b7c0e9f4a10"`
}
