package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore keeps one token bucket per client and forgets clients that
// have been idle for longer than expiresIn.
type limiterStore struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	rate        rate.Limit
	burst       int
	expiresIn   time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func newLimiterStore(cfg config.ThrottleConfig) *limiterStore {
	return &limiterStore{
		visitors:    make(map[string]*visitor),
		rate:        rate.Limit(cfg.Rate),
		burst:       cfg.Burst,
		expiresIn:   cfg.IdleTTL,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Allow reports whether the client identified by key may proceed.
func (s *limiterStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now

	if s.expiresIn > 0 && now.Sub(s.lastCleanup) > s.expiresIn {
		s.cleanup(now)
	}

	return v.limiter.AllowN(now, 1)
}

func (s *limiterStore) cleanup(now time.Time) {
	for key, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.expiresIn {
			delete(s.visitors, key)
		}
	}
	s.lastCleanup = now
}

// clientKey identifies authenticated callers by user and anonymous callers
// by remote address.
func clientKey(r *http.Request) string {
	if p := auth.FromContext(r.Context()); p != nil {
		return p.Key()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Throttle rejects clients that exceed the configured request rate with 429.
// It must run after Authenticate so that users are throttled by identity.
func Throttle(cfg config.ThrottleConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	store := newLimiterStore(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := clientKey(r)
			if !store.Allow(key) {
				metrics.ThrottledRequests.Inc()
				logger.Warn().Str("client", key).Str("path", r.URL.Path).Msg("request throttled")
				w.Header().Set("Retry-After", "1")
				writeError(w, model.ErrThrottled)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
