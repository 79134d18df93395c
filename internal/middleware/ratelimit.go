package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hitoshi/todoapi/internal/model"
	"golang.org/x/time/rate"
)

// RateLimitPolicy は「Window あたり Requests 回」のレート制限を表す。
type RateLimitPolicy struct {
	Requests int
	Window   time.Duration
}

// limit はポリシーをトークンバケットの補充レートに変換する。
func (p RateLimitPolicy) limit() rate.Limit {
	if p.Requests <= 0 || p.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(p.Requests) / p.Window.Seconds())
}

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	Name            string          // ログに出力するリミッター名（"general", "auth" 等）
	Policy          RateLimitPolicy // クライアントごとの上限
	CleanupInterval time.Duration   // 期限切れエントリのクリーンアップ間隔
}

// clientLimiter はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はクライアントIPごとのレート制限を管理する。
// バーストサイズはポリシーのRequestsと同じで、Window内にRequests回まで即座に受け付ける。
type RateLimiter struct {
	config RateLimiterConfig
	limit  rate.Limit

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		config:   config,
		limit:    config.Policy.limit(),
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware はクライアントIPごとのレート制限ミドルウェアを返す。
// クライアントIPはRemoteAddrから取得する（RealIPミドルウェアの後に配置）。
func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)

			if !rl.limiterFor(key).Allow() {
				rl.writeRateLimitResponse(w)
				slog.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("limit_type", rl.config.Name),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// limiterFor はクライアントのリミッターを取得または作成する。
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cl, exists := rl.limiters[key]; exists {
		cl.lastAccess = time.Now()
		return cl.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.config.Policy.Requests)
	rl.limiters[key] = &clientLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセスからWindowとCleanupIntervalの長い方を超えたエントリを削除する。
// Window経過後はバケットが満杯に戻っているため、削除しても制限内容は変わらない。
func (rl *RateLimiter) cleanup(now time.Time) {
	ttl := max(rl.config.Policy.Window, rl.config.CleanupInterval)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, cl := range rl.limiters {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが1つ補充されるまでの推定秒数を設定する。
func (rl *RateLimiter) writeRateLimitResponse(w http.ResponseWriter) {
	retryAfterSec := 1
	if p := rl.config.Policy; p.Requests > 0 && p.Window > 0 {
		retryAfterSec = max(int(math.Ceil(p.Window.Seconds()/float64(p.Requests))), 1)
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	WriteErrorResponse(w, http.StatusTooManyRequests, model.NewRateLimitError())
}

// clientKey はリクエスト元のIPアドレスを返す。
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
