package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter はクライアントIPごとのトークンバケットでリクエスト数を制限する。
// 一定時間アクセスの無いクライアントのエントリは定期的に削除される。
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*clientEntry
	rate       rate.Limit
	burst      int
	staleAfter time.Duration
	done       chan struct{}
	closeOnce  sync.Once
	// onReject は拒否時に呼ばれる。nilの場合は何もしない。
	onReject func()
}

// clientEntry はクライアントごとのリミッタと最終アクセス時刻。
type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter は1分あたりperMinute回まで許可するRateLimiterを生成する。
// 生成と同時に古いエントリを削除するゴルーチンが起動するため、不要になったらCloseを呼ぶこと。
func NewRateLimiter(perMinute int, onReject func()) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	l := &RateLimiter{
		clients:    make(map[string]*clientEntry),
		rate:       rate.Limit(float64(perMinute) / time.Minute.Seconds()),
		burst:      perMinute,
		staleAfter: 10 * time.Minute,
		done:       make(chan struct{}),
		onReject:   onReject,
	}
	go l.cleanupLoop(time.Minute)
	return l
}

// getClient はIPに対応するリミッタを返す。無ければ作成する。
func (l *RateLimiter) getClient(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.clients[ip]
	if !exists {
		limiter := rate.NewLimiter(l.rate, l.burst)
		l.clients[ip] = &clientEntry{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Allow はIPからのリクエストを許可するかどうかを返す。
func (l *RateLimiter) Allow(ip string) bool {
	return l.getClient(ip).Allow()
}

// RetryAfter は次のリクエストが許可されるまでの秒数を返す。
func (l *RateLimiter) RetryAfter(ip string) int {
	reservation := l.getClient(ip).Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	return int(math.Ceil(delay.Seconds()))
}

func (l *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.done:
			return
		}
	}
}

func (l *RateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for ip, entry := range l.clients {
		if now.Sub(entry.lastSeen) > l.staleAfter {
			delete(l.clients, ip)
		}
	}
}

// Close は削除用ゴルーチンを停止する。
func (l *RateLimiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Middleware はレート制限を行うGinミドルウェアを返す。
// 上限を超えた場合は Retry-After ヘッダー付きで429を返す。
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if l.Allow(ip) {
			c.Next()
			return
		}

		if l.onReject != nil {
			l.onReject()
		}
		retryAfter := l.RetryAfter(ip)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "Request was throttled. Expected available in " + strconv.Itoa(retryAfter) + " seconds.",
		})
	}
}
