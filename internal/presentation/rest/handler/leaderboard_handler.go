package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	leaderboardapp "reward-server/internal/application/leaderboard"
)

// LeaderboardHandler ランキング関連ハンドラー
type LeaderboardHandler struct {
	leaderboardService *leaderboardapp.LeaderboardApplicationService
}

// NewLeaderboardHandler 新しいLeaderboardHandlerを作成
func NewLeaderboardHandler(leaderboardService *leaderboardapp.LeaderboardApplicationService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

// GetLeaderboard ランキング取得ハンドラー
// @Summary カテゴリ別ランキングを取得
// @Tags leaderboard
// @Produce json
// @Param category path string true "カテゴリ" Enums(steps, games, earned, points)
// @Param limit query int false "取得件数（既定50、最大100）"
// @Success 200 {object} LeaderboardResponse "ランキング"
// @Failure 400 {object} ErrorResponse "未知のカテゴリ"
// @Router /leaderboard/{category} [get]
func (h *LeaderboardHandler) GetLeaderboard(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	resp, err := h.leaderboardService.TopN(c.Request().Context(), &leaderboardapp.TopRequest{
		Category: c.Param("category"),
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, LeaderboardResponse{
		Category:    resp.Category,
		GeneratedAt: resp.GeneratedAt,
		Totals: LeaderboardTotals{
			Users:      resp.Totals.Users,
			TotalValue: resp.Totals.TotalValue.InexactFloat64(),
			MaxValue:   resp.Totals.MaxValue.InexactFloat64(),
		},
		Entries: toLeaderboardEntries(resp.Entries),
	})
}

// GetUserRank 個人順位取得ハンドラー
// @Summary ウォレットの全体・地域・ローカル順位を取得
// @Tags leaderboard
// @Produce json
// @Param wallet path string true "ウォレットID" example(0xabc0001)
// @Param category path string true "カテゴリ" Enums(steps, games, earned, points)
// @Param neighbors query int false "前後に表示する件数（最大10）"
// @Success 200 {object} UserRankResponse "順位"
// @Failure 400 {object} ErrorResponse "未知のカテゴリ"
// @Failure 404 {object} ErrorResponse "ウォレットが存在しない"
// @Router /leaderboard/user/{wallet}/{category} [get]
func (h *LeaderboardHandler) GetUserRank(c echo.Context) error {
	neighbors, err := queryInt(c, "neighbors")
	if err != nil {
		return err
	}

	resp, err := h.leaderboardService.RankOf(c.Request().Context(), &leaderboardapp.RankOfRequest{
		WalletID:  c.Param("wallet"),
		Category:  c.Param("category"),
		Neighbors: neighbors,
	})
	if err != nil {
		return err
	}

	out := UserRankResponse{
		Username: resp.Username,
		Category: resp.Category,
		Value:    resp.Value.InexactFloat64(),
		Global:   toRankItem(resp.Global),
		Regional: toRankItem(resp.Regional),
		Local:    toRankItem(resp.Local),
	}
	if resp.Neighbors != nil {
		out.Neighbors = &NeighborsItem{
			Above: toLeaderboardEntries(resp.Neighbors.Above),
			Below: toLeaderboardEntries(resp.Neighbors.Below),
		}
	}

	return c.JSON(http.StatusOK, out)
}

func toLeaderboardEntries(in []leaderboardapp.EntryDTO) []LeaderboardEntry {
	out := make([]LeaderboardEntry, 0, len(in))
	for _, e := range in {
		out = append(out, LeaderboardEntry{
			Rank:     e.Rank,
			Username: e.Username,
			Wallet:   e.Wallet,
			Value:    e.Value.InexactFloat64(),
			Tier:     e.Tier,
		})
	}
	return out
}

func toRankItem(r leaderboardapp.RankDTO) RankItem {
	return RankItem{Rank: r.Rank, Total: r.Total, IsApprox: r.IsApprox}
}

// queryInt 整数のクエリパラメータ。未指定は0
func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}
