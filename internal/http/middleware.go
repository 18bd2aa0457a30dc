package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/twpol/personalmissioncontrol/internal/ports"
	"github.com/twpol/personalmissioncontrol/internal/service"
)

// SessionCookieName is the browser cookie carrying the session id.
const SessionCookieName = "session_id"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SessionOptions groups dependencies for the Session middleware.
type SessionOptions struct {
	SignIn       *service.SignInService
	Accounts     ports.AccountStore
	CookieDomain string
}

// Session returns a middleware that attaches the session id and the
// session's account context to every request. A request without a session
// cookie gets a fresh session id; authentication never fails, an unknown or
// corrupt session just carries an empty identity set.
func Session(opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			if sessionID == "" {
				sessionID = uuid.NewString()
				setSessionCookie(w, r, opts.CookieDomain, sessionID)
			}

			principal := opts.SignIn.Authenticate(r.Context(), sessionID)
			accounts := service.NewAccountContext(opts.Accounts, principal)

			ctx := SetSessionInContext(r.Context(), sessionID)
			ctx = SetAccountsInContext(ctx, accounts)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccount returns a middleware that requires a signed-in account for
// the given provider scheme. API requests get a 401 JSON response; browser
// requests are redirected into the provider's login flow.
func RequireAccount(scheme string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accounts, ok := AccountsFromContext(r.Context())
			if ok {
				if _, found := accounts.Principal().Identity(scheme); found {
					next.ServeHTTP(w, r)
					return
				}
			}

			if strings.HasPrefix(r.URL.Path, "/api/") {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("sign in with " + scheme + " required"),
				})
				return
			}

			login := url.URL{Path: "/auth/" + scheme + "/login"}
			q := url.Values{}
			q.Set("redirect_uri", safeRedirectPath(r.URL.RequestURI()))
			login.RawQuery = q.Encode()
			http.Redirect(w, r, login.String(), http.StatusFound)
		})
	}
}

func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, domain, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// safeRedirectPath allows only relative paths for post-login redirects.
func safeRedirectPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return u.RequestURI()
}
