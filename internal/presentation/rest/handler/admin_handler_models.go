package handler

import "github.com/shopspring/decimal"

// AdjustmentRequest 管理者調整リクエスト
// @Description 管理者調整リクエスト。amount は正の数（JSON数値または文字列）で、減算は is_deduction で指定
type AdjustmentRequest struct {
	Wallet      string          `json:"wallet" example:"0xabc0001"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"12.5"`
	Currency    string          `json:"currency" example:"zwap" enums:"zwap,zpts"`
	Reason      string          `json:"reason" example:"support refund" maxLength:"255"`
	IsDeduction bool            `json:"is_deduction" example:"false"`
}

// AdjustmentResponse 管理者調整レスポンス
// @Description 管理者調整レスポンス
type AdjustmentResponse struct {
	Entry       LedgerEntryItem `json:"entry"`
	ZwapBalance string          `json:"zwap_balance" example:"112.50"`
	ZptsBalance int64           `json:"zpts_balance" example:"100"`
}

// ReconcileResponse 台帳照合レスポンス
// @Description 台帳合計と残高の照合結果。drift は 残高 - 台帳合計
type ReconcileResponse struct {
	Wallet      string `json:"wallet" example:"0xabc0001"`
	Entries     int64  `json:"entries" example:"12"`
	LedgerZwap  string `json:"ledger_zwap" example:"100.00"`
	BalanceZwap string `json:"balance_zwap" example:"100.00"`
	ZwapDrift   string `json:"zwap_drift" example:"0.00"`
	LedgerZpts  int64  `json:"ledger_zpts" example:"100"`
	BalanceZpts int64  `json:"balance_zpts" example:"100"`
	ZptsDrift   int64  `json:"zpts_drift" example:"0"`
	Consistent  bool   `json:"consistent" example:"true"`
}

// IssueTokenRequest ウォレットトークン発行リクエスト
// @Description ウォレットトークン発行リクエスト
type IssueTokenRequest struct {
	Wallet string `json:"wallet" example:"0xabc0001"`
}

// IssueTokenResponse ウォレットトークン発行レスポンス
// @Description ウォレットトークン発行レスポンス
type IssueTokenResponse struct {
	Wallet    string `json:"wallet" example:"0xabc0001"`
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJ3YWxsZXQiOiIweGFiYzAwMDEifQ.signature"`
	ExpiresIn int64  `json:"expires_in" example:"86400"`
	TokenType string `json:"token_type" example:"Bearer"`
}
