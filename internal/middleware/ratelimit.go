package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tasque/internal/logger"

	"go.uber.org/zap"
)

const rateWindow = time.Minute

type clientInfo struct {
	count   int
	resetAt time.Time
}

type limiter struct {
	rpm       int
	now       func() time.Time
	mtx       sync.Mutex
	clients   map[string]*clientInfo
	lastSweep time.Time
}

// allow возвращает остаток запросов и время сброса окна
func (l *limiter) allow(ip string) (ok bool, remaining int, resetAt time.Time) {
	now := l.now()

	l.mtx.Lock()
	defer l.mtx.Unlock()

	if now.Sub(l.lastSweep) > rateWindow {
		for key, info := range l.clients {
			if now.After(info.resetAt) {
				delete(l.clients, key)
			}
		}
		l.lastSweep = now
	}

	info, exists := l.clients[ip]
	switch {
	case !exists || now.After(info.resetAt):
		info = &clientInfo{count: 1, resetAt: now.Add(rateWindow)}
		l.clients[ip] = info
	case info.count >= l.rpm:
		return false, 0, info.resetAt
	default:
		info.count++
	}
	return true, max(l.rpm-info.count, 0), info.resetAt
}

// RateLimit ограничивает число запросов в минуту с одного IP. rpm <= 0 отключает лимит.
func RateLimit(rpm int) func(http.Handler) http.Handler {
	return rateLimit(rpm, time.Now)
}

func rateLimit(rpm int, now func() time.Time) func(http.Handler) http.Handler {
	if rpm <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := &limiter{rpm: rpm, now: now, clients: make(map[string]*clientInfo)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getIp(r)
			ok, remaining, resetAt := l.allow(ip)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rpm))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				logger.Warn("HTTP: Превышен лимит запросов",
					zap.String("client_ip", ip),
					zap.String("request_id", GetRequestID(r.Context())))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Слишком много запросов. Попробуйте позже.",
					"retry_after": int(resetAt.Sub(now()).Seconds()),
					"request_id":  GetRequestID(r.Context()),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getIp(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
