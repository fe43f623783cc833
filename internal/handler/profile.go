package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/click-counter/internal/auth"
)

// ProfileHandler serves the current user's stored GitHub profile.
type ProfileHandler struct {
	logger *slog.Logger
}

func NewProfileHandler(logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{logger: logger}
}

// HandleProfile returns the profile snapshot taken at first sign-in.
//
// HTTP: GET /api/{id}
// Auth: Required. As with the clicks routes, {id} is ignored.
//
// The gate already loaded the user row to resolve the session, so there is
// nothing left to query. model.User's JSON tags expose only externalId,
// username, displayName and publicRepoCount.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.logger.Error("profile handler reached without a user",
			slog.String("error", errNoUser.Error()),
		)
		writeError(w, errNoUser)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
