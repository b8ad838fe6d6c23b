package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/artpar/newsdemo/adapters/remote"
	"github.com/artpar/newsdemo/app/query"
	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/domain/news"
	"github.com/artpar/newsdemo/pkg/apierr"
	"github.com/go-chi/chi/v5"
)

// Acknowledgments shown after auth actions.
const (
	MsgSignedUp      = "Signed up successfully!"
	MsgLoggedIn      = "Logged in successfully!"
	MsgLoggedOut     = "You have been logged out"
	MsgLogoutFailed  = "Logout failed"
	MsgSomethingWent = "Something went wrong"
)

// Form modes of the auth page.
const (
	modeLogin  = "login"
	modeSignup = "signup"
)

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Index links to the demos.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index", h.newPageData(r.Context(), "Home", r.URL.Path))
}

// -----------------------------------------------------------------------------
// News
// -----------------------------------------------------------------------------

type newsPageData struct {
	PageData
	Items     []news.NewsItem
	Loading   bool
	Error     string
	UpdatedAt time.Time
}

// NewsPage renders the news list through the list hook.
func (h *Handler) NewsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := use(ctx, h.news.List(), h.wait)

	data := newsPageData{
		PageData:  h.newPageData(ctx, "News", r.URL.Path),
		UpdatedAt: res.UpdatedAt,
	}
	switch {
	case res.Err != nil && !res.IsLoading:
		data.Error = apierr.Message(res.Err, remote.MsgNewsFailed)
	case res.Status == query.StatusSuccess:
		data.Items = res.Data.Items
	default:
		data.Loading = true
	}

	h.render(w, http.StatusOK, "news", data)
}

// NewsRefresh invalidates the news reads and goes back to the list.
func (h *Handler) NewsRefresh(w http.ResponseWriter, r *http.Request) {
	n := h.news.Refresh(r.Context())
	h.logger.Debug().Int("entries", n).Msg("news refreshed")
	http.Redirect(w, r, "/news-hooks", http.StatusSeeOther)
}

type newsItemPageData struct {
	PageData
	ID      string
	Item    news.NewsItem
	Loading bool
	Error   string
}

// NewsItemPage renders one item through the item hook.
func (h *Handler) NewsItemPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	res := use(ctx, h.news.Item(id), h.wait)

	data := newsItemPageData{
		PageData: h.newPageData(ctx, "News item", r.URL.Path),
		ID:       id,
	}

	status := http.StatusOK
	switch {
	case res.Err != nil && !res.IsLoading:
		data.Error = apierr.Message(res.Err, remote.MsgNewsFailed)
		if apierr.IsNotFound(res.Err) {
			status = http.StatusNotFound
		}
	case res.Status == query.StatusSuccess:
		data.Item = res.Data
	default:
		data.Loading = true
	}

	h.render(w, status, "news_item", data)
}

// -----------------------------------------------------------------------------
// Auth
// -----------------------------------------------------------------------------

type authPageData struct {
	PageData
	Mode           string
	SessionLoading bool
	SessionError   string
	LoggingOut     bool
	Email          string
	Name           string
}

// AuthPage shows the signed-in user or the login/signup form.
func (h *Handler) AuthPage(w http.ResponseWriter, r *http.Request) {
	h.renderAuth(w, r, formMode(r.URL.Query().Get("mode")), nil, "", "")
}

// AuthSubmit runs the signup or login mutation for the submitted form.
func (h *Handler) AuthSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAuth(w, r, modeLogin, failure(MsgSomethingWent), "", "")
		return
	}

	ctx := r.Context()
	mode := formMode(r.PostForm.Get("mode"))
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	name := strings.TrimSpace(r.PostForm.Get("name"))

	var (
		err error
		ack string
	)
	if mode == modeSignup {
		_, err = h.auth.Signup().MutateAsync(ctx, auth.SignupRequest{Email: email, Password: password, Name: name})
		ack = MsgSignedUp
	} else {
		_, err = h.auth.Login().MutateAsync(ctx, auth.LoginRequest{Email: email, Password: password})
		ack = MsgLoggedIn
	}

	if err != nil {
		h.logger.Debug().Err(err).Str("mode", mode).Msg("auth action failed")
		h.renderAuth(w, r, mode, failure(apierr.Message(err, MsgSomethingWent)), email, name)
		return
	}

	// Success clears the form.
	h.renderAuth(w, r, mode, success(ack), "", "")
}

// LogoutSubmit runs the logout mutation.
func (h *Handler) LogoutSubmit(w http.ResponseWriter, r *http.Request) {
	flash := success(MsgLoggedOut)
	if _, err := h.auth.Logout().MutateAsync(r.Context(), struct{}{}); err != nil {
		h.logger.Warn().Err(err).Msg("logout failed")
		flash = failure(MsgLogoutFailed)
	}
	h.renderAuth(w, r, modeLogin, flash, "", "")
}

func (h *Handler) renderAuth(w http.ResponseWriter, r *http.Request, mode string, flash *FlashMessage, email, name string) {
	ctx := r.Context()
	data := authPageData{
		PageData:   h.newPageData(ctx, "Auth demo", r.URL.Path),
		Mode:       mode,
		LoggingOut: h.auth.Logout().IsPending(),
		Email:      email,
		Name:       name,
	}
	data.Flash = flash

	if res := h.auth.CurrentUser().Peek(); res.IsLoading && data.User == nil {
		data.SessionLoading = true
	} else if res.Err != nil {
		data.SessionError = apierr.Message(res.Err, MsgSomethingWent)
	}

	h.render(w, http.StatusOK, "auth", data)
}

func formMode(s string) string {
	if s == modeSignup {
		return modeSignup
	}
	return modeLogin
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl, ok := h.templates[name]
	if !ok {
		h.logger.Error().Str("template", name).Msg("template not found")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("template render error")
	}
}
