package handler

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/sakif/click-counter/internal/auth"
)

// Page names, one per file in the template directory besides base.html.
const (
	PageIndex   = "index"
	PageLogin   = "login"
	PageProfile = "profile"
)

// PageHandler renders the HTML pages. It holds parsed templates so they are
// not re-parsed on every request.
//
// TEMPLATE COMPOSITION:
// base.html defines the page shell with a {{template "content" .}}
// placeholder. Every page file defines its own "content", so each page gets
// its own template set of base.html plus that one file. Parsing all pages
// into a single set would make the last "content" win.
type PageHandler struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewPageHandler parses base.html together with each page template found in
// templateDir. A missing or malformed file fails startup rather than the
// first request.
func NewPageHandler(templateDir string, logger *slog.Logger) (*PageHandler, error) {
	h := &PageHandler{
		pages:  make(map[string]*template.Template),
		logger: logger,
	}

	base := filepath.Join(templateDir, "base.html")
	for _, name := range []string{PageIndex, PageLogin, PageProfile} {
		tmpl, err := template.ParseFiles(base, filepath.Join(templateDir, name+".html"))
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s template: %w", name, err)
		}
		h.pages[name] = tmpl
	}

	return h, nil
}

// pageData is what every template receives. User is nil on the login page.
type pageData struct {
	Title string
	User  any
}

// HandleIndex serves the home page with the click button.
//
// HTTP: GET /   (authenticated)
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageIndex, "Click Counter")
}

// HandleLogin serves the sign-in page.
//
// HTTP: GET /login   (anonymous only)
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageLogin, "Sign in · Click Counter")
}

// HandleProfile serves the profile page. The fields themselves are filled
// in by user.js from GET /api/{id}.
//
// HTTP: GET /profile   (authenticated)
func (h *PageHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, PageProfile, "Profile · Click Counter")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page, title string) {
	data := pageData{Title: title}
	if user, ok := auth.UserFromContext(r.Context()); ok {
		data.User = user
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages[page].ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
