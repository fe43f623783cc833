// Authentication business logic.
//
// AuthService sits between the OAuth callback handler and the user store:
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (session JWT)
//
// It does NOT set cookies or read requests; that is the handler's job.

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/sakif/click-counter/internal/apperror"
	"github.com/sakif/click-counter/internal/auth"
	"github.com/sakif/click-counter/internal/model"
	"github.com/sakif/click-counter/internal/repository"
)

// AuthService turns a GitHub profile into a stored user plus a session token.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// AuthResult bundles the user record and the issued session token so the
// handler can set the cookie and redirect in one step.
type AuthResult struct {
	User    *model.User
	Token   string
	Created bool // true on the account's first-ever sign-in
}

// LoginGitHub handles a successful GitHub OAuth callback.
//
// FIRST LOGIN vs RETURNING USER:
// The user is looked up by GitHub's numeric ID. On the first sign-in a row
// is created with the profile snapshot and zero clicks. On later sign-ins
// the stored row is used as-is: the profile is NOT refreshed.
func (s *AuthService) LoginGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	displayName := ghUser.Name
	if displayName == "" {
		// GitHub leaves "name" empty when the user never set one.
		displayName = ghUser.Login
	}

	user := &model.User{
		ExternalID:      strconv.FormatInt(ghUser.ID, 10),
		Username:        ghUser.Login,
		DisplayName:     displayName,
		PublicRepoCount: ghUser.PublicRepos,
	}

	created, err := s.users.FindOrCreate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w",
			apperror.StoreFailure(fmt.Sprintf("find or create user (externalID=%s)", user.ExternalID), err))
	}

	if created {
		s.logger.Info("new user registered via GitHub",
			slog.String("userID", user.ID),
			slog.String("username", user.Username),
		)
	} else {
		s.logger.Info("user authenticated via GitHub",
			slog.String("userID", user.ID),
			slog.String("username", user.Username),
		)
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{
		User:    user,
		Token:   token,
		Created: created,
	}, nil
}
