package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	"github.com/twpol/personalmissioncontrol/internal/ports"
	"github.com/twpol/personalmissioncontrol/internal/service"
)

// ProviderSource resolves a provider scheme to its auth provider.
type ProviderSource interface {
	Provider(scheme string) (ports.AuthProvider, bool)
}

// AuthHandlers provides HTTP handlers for the per-provider sign-in flows.
type AuthHandlers struct {
	Providers    ProviderSource
	SignIn       *service.SignInService
	CookieDomain string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login initiates an OAuth flow with one provider.
// GET /auth/{scheme}/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	scheme := r.PathValue("scheme")
	provider, ok := h.Providers.Provider(scheme)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "unknown_provider",
			Err:     errors.New("unknown provider scheme: " + scheme),
		})
		return
	}

	redirectURI := safeRedirectPath(r.URL.Query().Get("redirect_uri"))

	authURL, state, nonce, err := provider.Begin(r.Context(), ports.BeginInput{Scheme: scheme})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     err,
		})
		return
	}

	h.setOAuthCookies(w, r, oauthCookieParams{State: state, Nonce: nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes an OAuth flow and attaches the provider identity to the
// session, replacing any previous identity for the same scheme.
// GET /auth/{scheme}/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	scheme := r.PathValue("scheme")
	provider, ok := h.Providers.Provider(scheme)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: "unknown_provider",
			Err:     errors.New("unknown provider scheme: " + scheme),
		})
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || state == "" || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	var nonce string
	if nonceCookie, err := r.Cookie("oauth_nonce"); err == nil {
		nonce = nonceCookie.Value
	}

	result, err := provider.Exchange(r.Context(), ports.ExchangeInput{
		Scheme: scheme,
		Code:   code,
		Nonce:  nonce,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     err,
		})
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())
	accounts, _ := AccountsFromContext(r.Context())
	if err := h.SignIn.SignIn(r.Context(), sessionID, accounts, result.Identity, result.Props); err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "signin_failed",
			Err:     err,
		})
		return
	}

	h.clearCookie(w, r, "oauth_state")
	h.clearCookie(w, r, "oauth_nonce")

	redirectURI := "/"
	if c, err := r.Cookie("oauth_redirect"); err == nil {
		if raw, err := url.QueryUnescape(c.Value); err == nil {
			redirectURI = safeRedirectPath(raw)
		}
	}
	h.clearCookie(w, r, "oauth_redirect")
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Logout detaches one provider's identity from the session and discards its
// account. Other providers' identities are untouched. Signing out of a
// provider that is not signed in is a no-op.
// POST /auth/{scheme}/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	scheme := r.PathValue("scheme")
	sessionID, _ := SessionIDFromContext(r.Context())
	accounts, ok := AccountsFromContext(r.Context())
	if ok {
		if identity, found := accounts.Principal().Identity(scheme); found {
			if err := h.SignIn.SignOut(r.Context(), sessionID, accounts, identity.AccountID()); err != nil {
				h.logger().WarnContext(r.Context(), "sign out failed",
					"scheme", scheme, "error", err)
			}
		}
	}

	redirectURI := safeRedirectPath(r.FormValue("redirect_uri"))
	http.Redirect(w, r, redirectURI, http.StatusFound)
}

// Status reports which providers the session is signed in with.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	accounts, ok := AccountsFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"accounts": []any{}})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"accounts": identitySummaries(accounts.Principal()),
	})
}

type identitySummary struct {
	AccountID string `json:"account_id"`
	Scheme    string `json:"scheme"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
}

func identitySummaries(principal domainauth.Principal) []identitySummary {
	out := []identitySummary{}
	for _, accountID := range principal.AccountIDs() {
		identity, ok := principal.Identity(domainauth.SchemeOf(accountID))
		if !ok {
			continue
		}
		out = append(out, identitySummary{
			AccountID: identity.AccountID(),
			Scheme:    identity.Scheme,
			Name:      identity.Name,
			Email:     identity.Email,
		})
	}
	return out
}

// oauthCookieParams groups values needed to set the OAuth flow cookies.
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

// setOAuthCookies stores OAuth state, nonce, and the post-login redirect in
// short-lived secure cookies.
func (h *AuthHandlers) setOAuthCookies(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	isSecure := isSecureRequest(r)
	const flowTTL = 10 * time.Minute

	set := func(name, value string) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			Domain:   h.CookieDomain,
			HttpOnly: true,
			Secure:   isSecure,
			MaxAge:   int(flowTTL.Seconds()),
			SameSite: http.SameSiteLaxMode,
		})
	}
	set("oauth_state", p.State)
	if p.Nonce != "" {
		set("oauth_nonce", p.Nonce)
	}
	set("oauth_redirect", url.QueryEscape(p.RedirectURI))
}

// clearCookie clears a cookie by setting it to expire immediately.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
