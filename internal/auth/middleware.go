package auth

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type emailKey struct{}

// WithEmail returns a context carrying the authenticated email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey{}, email)
}

// EmailFrom returns the authenticated email, or "" for anonymous requests.
func EmailFrom(ctx context.Context) string {
	email, _ := ctx.Value(emailKey{}).(string)
	return email
}

// Authenticate attaches the caller's email to the request context, taken from
// the session cookie or a Bearer API key. It never rejects a request; the
// capability checks downstream decide. Failed Bearer attempts count against
// the limiter and answer 429 once it is exhausted.
func Authenticate(sessions *SessionStore, keys *APIKeyStore, limiter *LoginLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email, err := sessions.Validate(r); err == nil {
			next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		ip := ClientIP(r)
		if limiter.Blocked(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		email, err := keys.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			slog.Error("validating api key", "error", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		if email == "" {
			limiter.Fail(ip)
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
	})
}

// RequireCapability lets the request through only when the authenticated
// user holds c. Anonymous GET requests are sent to the login page; every
// other denial is a 403.
func RequireCapability(users *UserStore, c Capability, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := EmailFrom(r.Context())
		if email == "" && r.Method == http.MethodGet {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !users.Can(email, c) {
			http.Error(w, "You do not have permission to access this page", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginLimiter throttles failed credential attempts per client IP.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// Failures allowed per IP before throttling, refilled one per interval.
const (
	loginBurst    = 10
	loginInterval = 6 * time.Second
)

// NewLoginLimiter allows burst failures per IP, refilled one every interval.
func NewLoginLimiter(interval time.Duration, burst int) *LoginLimiter {
	return &LoginLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(interval),
		burst:    burst,
	}
}

// DefaultLoginLimiter allows ten failures a minute per IP.
func DefaultLoginLimiter() *LoginLimiter {
	return NewLoginLimiter(loginInterval, loginBurst)
}

func (l *LoginLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim
}

// Blocked reports whether ip has used up its failure budget.
func (l *LoginLimiter) Blocked(ip string) bool {
	return l.get(ip).Tokens() < 1
}

// Fail records a failed attempt from ip.
func (l *LoginLimiter) Fail(ip string) {
	l.get(ip).Allow()
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
