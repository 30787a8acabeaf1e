package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/lethanhdatit/bocmenh/internal/apperror"
)

// visitor is one IP's token bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns middleware that allows each IP a burst of maxRequests
// refilled evenly over window. Excess requests get a 429 AppError, which
// the error handler turns into an envelope. Idle buckets are swept lazily.
func RateLimit(maxRequests int, window time.Duration) echo.MiddlewareFunc {
	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
		every     = rate.Every(window / time.Duration(maxRequests))
	)

	allow := func(ip string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		if now.Sub(lastSweep) > window {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > window {
					delete(visitors, k)
				}
			}
			lastSweep = now
		}

		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(every, maxRequests)}
			visitors[ip] = v
		}
		v.lastSeen = now
		return v.limiter.AllowN(now, 1)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allow(c.RealIP(), time.Now()) {
				return apperror.NewTooManyRequests("errors.tooManyRequests")
			}
			return next(c)
		}
	}
}
