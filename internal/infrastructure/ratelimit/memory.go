package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"

	ratelimitdomain "reward-server/internal/domain/ratelimit"
)

// sweepInterval シャードごとに何回の操作で満タンのリミッターを掃除するか
const sweepInterval = 256

// MemoryLimiter プロセス内のクールダウン管理
// キーを xxhash でシャードに振り分け、シャードごとのミューテックスで check と record を不可分にする
type MemoryLimiter struct {
	shards []*shard
	now    func() time.Time
}

type shard struct {
	mu       sync.Mutex
	limiters map[string]*cooldownLimiter
	ops      int
}

type cooldownLimiter struct {
	limiter  *rate.Limiter
	cooldown time.Duration
}

// NewMemoryLimiter 新しいMemoryLimiterを作成
func NewMemoryLimiter(shards int) *MemoryLimiter {
	if shards < 1 {
		shards = 1
	}
	l := &MemoryLimiter{
		shards: make([]*shard, shards),
		now:    time.Now,
	}
	for i := range l.shards {
		l.shards[i] = &shard{limiters: make(map[string]*cooldownLimiter)}
	}
	return l
}

// CheckAndRecord クールダウン外であれば受付時刻を記録する
func (l *MemoryLimiter) CheckAndRecord(ctx context.Context, wallet string, action ratelimitdomain.Action, cooldown time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := ratelimitdomain.Key(wallet, action)
	s := l.shards[xxhash.Sum64String(key)%uint64(len(l.shards))]

	s.mu.Lock()
	defer s.mu.Unlock()

	now := l.now()
	cl, ok := s.limiters[key]
	if !ok || cl.cooldown != cooldown {
		// バースト1、クールダウンごとに1トークン
		cl = &cooldownLimiter{
			limiter:  rate.NewLimiter(rate.Every(cooldown), 1),
			cooldown: cooldown,
		}
		s.limiters[key] = cl
	}

	if !cl.limiter.AllowN(now, 1) {
		tokens := cl.limiter.TokensAt(now)
		retryAfter := time.Duration((1 - tokens) * float64(cooldown))
		return &ratelimitdomain.LimitedError{Action: action, RetryAfter: retryAfter}
	}

	s.ops++
	if s.ops >= sweepInterval {
		s.ops = 0
		s.sweep(now, key)
	}
	return nil
}

// sweep トークンが満タンに戻ったリミッターを削除する
// 満タンのリミッターは未登録と同じ判定になる
func (s *shard) sweep(now time.Time, keep string) {
	for k, cl := range s.limiters {
		if k == keep {
			continue
		}
		if cl.limiter.TokensAt(now) >= 1 {
			delete(s.limiters, k)
		}
	}
}

// size 保持しているリミッター数
func (l *MemoryLimiter) size() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.limiters)
		s.mu.Unlock()
	}
	return n
}
