// Package handler contains the HTTP handlers for the click counter.
//
// HANDLER RESPONSIBILITIES:
// 1. Read what the request carries (here mostly the user the gate resolved)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers do not touch the database and do not decide who the user is.
// Every /api handler runs behind auth.RequireAuthenticated, so the current
// user is always in the request context.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/click-counter/internal/auth"
	"github.com/sakif/click-counter/internal/model"
)

// ClickCounter is the counter protocol as the HTTP layer sees it.
// service.CounterService implements it.
type ClickCounter interface {
	Fetch(ctx context.Context, user *model.User) (model.Counts, error)
	Increment(ctx context.Context, user *model.User) (model.Counts, error)
	ResetPersonal(ctx context.Context, user *model.User) (model.Counts, error)
}

// ClickCount is the {"clicks": n} object the front-end reads.
type ClickCount struct {
	Clicks int64 `json:"clicks"`
}

// ClicksResponse is the body of every /api/{id}/clicks response.
//
// WIRE FORMAT:
//
//	{"usersRes": {"clicks": 2}, "clicksRes": {"clicks": 17}}
//
// usersRes is the caller's personal count, clicksRes the global total.
type ClicksResponse struct {
	UsersRes  ClickCount `json:"usersRes"`
	ClicksRes ClickCount `json:"clicksRes"`
}

func newClicksResponse(c model.Counts) ClicksResponse {
	return ClicksResponse{
		UsersRes:  ClickCount{Clicks: c.Personal},
		ClicksRes: ClickCount{Clicks: c.Global},
	}
}

// ClickHandler serves /api/{id}/clicks.
//
// THE {id} PATH PARAMETER:
// The route keeps an {id} segment for URL compatibility with the front-end,
// but it is never read. Whose clicks are counted is decided by the session,
// so one user cannot read or reset another user's count by editing the URL.
type ClickHandler struct {
	counter ClickCounter
	logger  *slog.Logger
}

func NewClickHandler(counter ClickCounter, logger *slog.Logger) *ClickHandler {
	return &ClickHandler{counter: counter, logger: logger}
}

// HandleGet returns both counts without changing them.
//
// HTTP: GET /api/{id}/clicks
func (h *ClickHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "fetch", h.counter.Fetch)
}

// HandleIncrement records one click for the current user.
//
// HTTP: POST /api/{id}/clicks
func (h *ClickHandler) HandleIncrement(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "increment", h.counter.Increment)
}

// HandleReset zeroes the current user's count and takes it off the global
// total.
//
// HTTP: DELETE /api/{id}/clicks
func (h *ClickHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "reset", h.counter.ResetPersonal)
}

// serve is the shared body of the three verbs: they differ only in which
// counter operation runs.
func (h *ClickHandler) serve(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(context.Context, *model.User) (model.Counts, error),
) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Only reachable if the route was registered without the gate.
		h.logger.Error("clicks handler reached without a user",
			slog.String("op", op),
			slog.String("error", errNoUser.Error()),
		)
		writeError(w, errNoUser)
		return
	}

	counts, err := fn(r.Context(), user)
	if err != nil {
		h.logger.Error("counter operation failed",
			slog.String("op", op),
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newClicksResponse(counts))
}
