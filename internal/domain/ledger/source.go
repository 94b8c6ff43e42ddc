package ledger

import (
	"fmt"
)

// Source 台帳エントリの発生源
type Source string

const (
	SourceWalking         Source = "walking"          // 歩数報酬
	SourceGame            Source = "game"             // ゲーム報酬
	SourceAdminAdjustment Source = "admin_adjustment" // 管理者による調整
	SourceConversion      Source = "conversion"       // ポイントから通貨への交換
)

// NewSource 新しいSourceを作成
func NewSource(s string) (Source, error) {
	switch Source(s) {
	case SourceWalking, SourceGame, SourceAdminAdjustment, SourceConversion:
		return Source(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSource, s)
	}
}

// String 文字列表現を返す
func (s Source) String() string {
	return string(s)
}

// Valid 有効な発生源かどうかを返す
func (s Source) Valid() bool {
	_, err := NewSource(string(s))
	return err == nil
}

// IsActivity 活動報酬（日次上限の対象）かどうかを返す
func (s Source) IsActivity() bool {
	return s == SourceWalking || s == SourceGame
}
