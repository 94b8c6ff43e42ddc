package auth

// IssueWalletTokenRequest ウォレットトークン発行リクエスト
type IssueWalletTokenRequest struct {
	WalletID string
}

// IssueWalletTokenResponse ウォレットトークン発行レスポンス
type IssueWalletTokenResponse struct {
	WalletID  string
	Token     string
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}
