package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/click-counter/internal/auth"
	"github.com/sakif/click-counter/internal/service"
)

const stateCookieName = "oauth_state"

// OAuthProvider is the part of auth.GitHubProvider the handler uses.
// Tests substitute a stub so no request ever leaves the process.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// GitHubLogin turns a GitHub profile into a user and a session token.
// service.AuthService implements it.
type GitHubLogin interface {
	LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*service.AuthResult, error)
}

// AuthHandler manages the GitHub OAuth login flow and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → check state, exchange the code, sign in, set cookie
//
// Every failure in the callback ends on the login page rather than an error
// page: the user can simply try again.
type AuthHandler struct {
	github     OAuthProvider
	login      GitHubLogin
	sessionTTL int // seconds
	secure     bool
	logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secure sets the Secure flag on the
// cookies it writes and should be true whenever the site is served over
// HTTPS.
func NewAuthHandler(
	github OAuthProvider,
	login GitHubLogin,
	tokens *auth.TokenService,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:     github,
		login:      login,
		sessionTTL: int(tokens.TTL().Seconds()),
		secure:     secure,
		logger:     logger,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github
//
// CSRF PROTECTION VIA STATE:
// A random state value goes both into a short-lived cookie and into the
// authorization URL. GitHub echoes it back on the callback, and the callback
// only proceeds if the two match, proving this server started the flow.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes to approve on GitHub
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find or create the user (AuthService)
//  4. Store the session token in an HttpOnly cookie
//  5. Redirect to the home page
//
// Any failure redirects to /login.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || q.Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state missing or mismatched")
		h.failLogin(w, r)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		h.failLogin(w, r)
		return
	}

	// --- Step 2: Exchange code for GitHub profile ---
	code := q.Get("code")
	if code == "" {
		h.logger.Warn("auth callback: missing code")
		h.failLogin(w, r)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		h.failLogin(w, r)
		return
	}

	// --- Step 3: Find or create the user ---
	result, err := h.login.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		h.failLogin(w, r)
		return
	}

	// --- Step 4: Session cookie ---
	// HttpOnly keeps the token away from page scripts. The cookie lives as
	// long as the token it carries.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   h.sessionTTL,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	// --- Step 5: Redirect to the app ---
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout clears the session cookie and sends the browser to /login.
//
// HTTP: GET /logout
//
// Sessions are stateless tokens, so logging out only deletes the
// client-side cookie. The token itself stays valid until it expires.
// Logout does not depend on GitHub sign-in being configured.
func Logout(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, "/login", http.StatusFound)
	}
}

func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login", http.StatusFound)
}
