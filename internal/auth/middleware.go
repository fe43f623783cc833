package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/click-counter/internal/apperror"
	"github.com/sakif/click-counter/internal/model"
)

// contextKey is unexported so no other package can read or overwrite our
// context values by accident.
type contextKey string

const userKey contextKey = "user"

// Resolver answers "who is making this request?".
//
// It returns the stored user, or an error wrapping apperror.ErrUnauthenticated
// when the request carries no usable session. Any other error means the
// lookup itself failed (e.g. the database is down).
type Resolver interface {
	Resolve(r *http.Request) (*model.User, error)
}

// UserLookup is the slice of the user repository the resolver needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// SessionResolver resolves the session cookie to a stored user.
type SessionResolver struct {
	tokens *TokenService
	users  UserLookup
}

func NewSessionResolver(tokens *TokenService, users UserLookup) *SessionResolver {
	return &SessionResolver{tokens: tokens, users: users}
}

// Resolve reads the session cookie, validates the JWT and loads the user.
//
// A missing cookie, a bad or expired token, and a token naming a user that
// no longer exists are all "unauthenticated", not failures.
func (s *SessionResolver) Resolve(r *http.Request) (*model.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, apperror.Unauthenticated("no session cookie")
	}

	userID, err := s.tokens.Validate(cookie.Value)
	if err != nil {
		return nil, apperror.Unauthenticated(err.Error())
	}

	user, err := s.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("session user no longer exists")
		}
		return nil, fmt.Errorf("auth: %w", apperror.StoreFailure("load session user "+userID, err))
	}

	return user, nil
}

// RequireAuthenticated gates a route on a valid session.
//
//   - authenticated   → the user is stored in the context, the handler runs
//   - unauthenticated → 302 redirect to loginPath (NOT a JSON 401: the
//     browser lands on the login page even for API calls)
//   - lookup failure  → 500
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuthenticated(resolver Resolver, loginPath string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.Resolve(r)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthenticated) {
					http.Redirect(w, r, loginPath, http.StatusFound)
					return
				}
				logger.Error("resolving session failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAnonymous is the inverse gate, used only on the login page: an
// already signed-in browser is sent to homePath instead.
func RequireAnonymous(resolver Resolver, homePath string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := resolver.Resolve(r)
			switch {
			case err == nil:
				http.Redirect(w, r, homePath, http.StatusFound)
			case errors.Is(err, apperror.ErrUnauthenticated):
				next.ServeHTTP(w, r)
			default:
				logger.Error("resolving session failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		})
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by RequireAuthenticated.
//
// Returns (nil, false) on routes that are not behind the gate.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}
