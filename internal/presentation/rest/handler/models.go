package handler

import (
	"github.com/shopspring/decimal"
)

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Error      string `json:"error" example:"invalid_steps"`
	Message    string `json:"message" example:"steps out of range"`
	Code       string `json:"code,omitempty" example:"cooldown"`
	RetryAfter int    `json:"retry_after,omitempty" example:"240"`
	Remaining  *int   `json:"remaining,omitempty" example:"0"`
}

// money 通貨額を小数2桁の文字列にする
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
