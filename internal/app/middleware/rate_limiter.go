package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/m-istighfar/BE-M-Blood/internal/error/code"
	"github.com/m-istighfar/BE-M-Blood/internal/error/response"
	"golang.org/x/time/rate"
)

// 限流类型
const (
	LimitByIP       = "ip"
	LimitByPath     = "path"
	LimitByCombined = "combined"
	LimitByCustom   = "custom"
)

// RateLimiterConfig 限流器配置
type RateLimiterConfig struct {
	Rate       float64                   // 每秒允许的请求数
	Burst      int                       // 允许的突发请求数
	ExpiryTime time.Duration             // 空闲多久后回收限流器
	LimitType  string                    // 限流类型: "ip", "path", "combined", "custom"
	KeyFunc    func(*gin.Context) string // 自定义键生成函数
}

// DefaultRateLimiterConfig 默认限流器配置
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       1,
	Burst:      5,
	ExpiryTime: 1 * time.Hour,
	LimitType:  LimitByIP,
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore 按键保存令牌桶
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	expiry   time.Duration
	lastGC   time.Time
}

func newLimiterStore(cfg RateLimiterConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(cfg.Rate),
		burst:    cfg.Burst,
		expiry:   cfg.ExpiryTime,
		lastGC:   time.Now(),
	}
}

// allow 获取令牌，顺带回收长时间未使用的限流器
func (s *limiterStore) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expiry > 0 && now.Sub(s.lastGC) > s.expiry {
		for k, entry := range s.limiters {
			if now.Sub(entry.lastSeen) > s.expiry {
				delete(s.limiters, k)
			}
		}
		s.lastGC = now
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimiter 创建限流中间件
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	var cfg RateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	} else {
		cfg = DefaultRateLimiterConfig
	}

	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.LimitType == "" {
		cfg.LimitType = DefaultRateLimiterConfig.LimitType
	}

	store := newLimiterStore(cfg)

	return func(c *gin.Context) {
		var key string
		switch cfg.LimitType {
		case LimitByPath:
			key = c.FullPath()
		case LimitByCombined:
			key = c.ClientIP() + ":" + c.FullPath()
		case LimitByCustom:
			if cfg.KeyFunc != nil {
				key = cfg.KeyFunc(c)
			} else {
				key = c.ClientIP()
			}
		default:
			key = c.ClientIP()
		}

		if !store.allow(key, time.Now()) {
			response.FailWithMessage(c, code.ErrTooManyRequests, "too many requests, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPRateLimiter 按IP限流
func IPRateLimiter(r float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{Rate: r, Burst: burst, ExpiryTime: time.Hour, LimitType: LimitByIP})
}

// PathRateLimiter 按路径限流
func PathRateLimiter(r float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{Rate: r, Burst: burst, LimitType: LimitByPath})
}

// CombinedRateLimiter 按IP和路径组合限流
func CombinedRateLimiter(r float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{Rate: r, Burst: burst, ExpiryTime: time.Hour, LimitType: LimitByCombined})
}

// CustomRateLimiter 自定义键限流
func CustomRateLimiter(r float64, burst int, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{Rate: r, Burst: burst, ExpiryTime: time.Hour, LimitType: LimitByCustom, KeyFunc: keyFunc})
}
