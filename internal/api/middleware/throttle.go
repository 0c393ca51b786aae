package middleware

import (
	"net/http"
	"time"
	"userhub/internal/common"

	"github.com/redis/go-redis/v9"
)

// Throttle is fixed-window admission control backed by Redis, consulted
// before the login/register and user-mutation handlers run. Fails open on a
// Redis error: admission control must not take the API down with it.
func Throttle(rdb *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "throttle:" + r.RemoteAddr + ":" + r.URL.Path

			count, err := rdb.Incr(r.Context(), key).Result()
			if err == nil {
				if count == 1 {
					rdb.Expire(r.Context(), key, window)
				}
				if count > int64(limit) {
					common.RespondWithError(w, http.StatusTooManyRequests, common.ErrTooManyRequests.Error())
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
