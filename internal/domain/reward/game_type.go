package reward

import (
	"fmt"
	"strings"
)

// GameType ゲーム種別を表す値オブジェクト
type GameType string

const (
	GameBrickles GameType = "zbrickles"
	GameTrivia   GameType = "ztrivia"
	GameTetris   GameType = "ztetris"
	GameSlots    GameType = "zslots"
)

// NewGameType 新しいGameTypeを作成
// 定義済みかどうかは Calculator のルール表で判定する
func NewGameType(s string) (GameType, error) {
	g := GameType(strings.ToLower(strings.TrimSpace(s)))
	if g == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownGame)
	}
	return g, nil
}

// String 文字列表現を返す
func (g GameType) String() string {
	return string(g)
}
