package ledger

import (
	"fmt"
)

// Status 台帳エントリのステータス
type Status string

const (
	StatusEarned  Status = "earned"  // 獲得
	StatusClaimed Status = "claimed" // 交換済み
	StatusRevoked Status = "revoked" // 取り消し
)

// NewStatus 新しいStatusを作成
func NewStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusEarned, StatusClaimed, StatusRevoked:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
	}
}

// String 文字列表現を返す
func (s Status) String() string {
	return string(s)
}

// Valid 有効なステータスかどうかを返す
func (s Status) Valid() bool {
	_, err := NewStatus(string(s))
	return err == nil
}
