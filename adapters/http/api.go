// Package http provides the reference backend: the JSON news and session API
// the front-end consumes, plus health, metrics and API docs.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artpar/newsdemo/adapters/auth"
	"github.com/artpar/newsdemo/adapters/metrics"
	"github.com/artpar/newsdemo/adapters/random"
	domainAuth "github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/pkg/httpmw"
	"github.com/artpar/newsdemo/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Messages sent in {"message": ...} error bodies.
const (
	MsgEmailTaken         = "Email already registered"
	MsgInvalidCredentials = "Invalid email or password"
	MsgInvalidBody        = "Invalid request body"
	MsgInternal           = "Internal server error"
)

const maxBodyBytes = 1 << 20

// APIDeps contains dependencies for the backend handler.
type APIDeps struct {
	Users    ports.UserStore
	Sessions ports.SessionStore
	News     ports.NewsStore
	Hasher   ports.Hasher
	IDGen    ports.IDGenerator
	Random   random.Source // session ids; defaults to random.Real
	Tokens   *auth.TokenService
	Logger   zerolog.Logger
	Metrics  *metrics.Collector // optional; enables /metrics

	SessionTTL     time.Duration // default 7 days
	SecureCookie   bool
	RequestTimeout time.Duration
}

// APIHandler serves the backend REST contract.
type APIHandler struct {
	users    ports.UserStore
	sessions ports.SessionStore
	news     ports.NewsStore
	hasher   ports.Hasher
	idGen    ports.IDGenerator
	random   random.Source
	tokens   *auth.TokenService
	logger   zerolog.Logger
	metrics  *metrics.Collector

	sessionTTL   time.Duration
	secureCookie bool
	timeout      time.Duration
}

// NewAPIHandler creates the backend handler.
func NewAPIHandler(deps APIDeps) *APIHandler {
	ttl := deps.SessionTTL
	if ttl == 0 {
		ttl = 7 * 24 * time.Hour
	}

	src := deps.Random
	if src == nil {
		src = random.Real{}
	}

	return &APIHandler{
		users:        deps.Users,
		sessions:     deps.Sessions,
		news:         deps.News,
		hasher:       deps.Hasher,
		idGen:        deps.IDGen,
		random:       src,
		tokens:       deps.Tokens,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		sessionTTL:   ttl,
		secureCookie: deps.SecureCookie,
		timeout:      deps.RequestTimeout,
	}
}

// Router returns the backend router.
func (h *APIHandler) Router() chi.Router {
	r := chi.NewRouter()
	httpmw.Install(r, h.logger, h.metrics, h.timeout)

	r.Get("/health", h.Health)
	if h.metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/openapi.yaml", OpenAPIYAML)
	r.Get("/openapi.json", OpenAPIJSON)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.json")))

	r.Get("/news", h.ListNews)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}

// Health reports liveness.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListNews returns every stored item in publication order.
func (h *APIHandler) ListNews(w http.ResponseWriter, r *http.Request) {
	list, err := h.news.List(r.Context())
	if err != nil {
		h.internalError(w, "list news", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Signup validates the request, creates the account and starts a session.
func (h *APIHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domainAuth.SignupRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if v := domainAuth.ValidateSignup(req); !v.Valid {
		h.authFailure("validation")
		writeError(w, http.StatusUnprocessableEntity, firstError(v.Errors, "email", "password", "name"))
		return
	}

	ctx := r.Context()
	if _, err := h.users.GetByEmail(ctx, req.Email); err == nil {
		h.authFailure("duplicate")
		writeError(w, http.StatusConflict, MsgEmailTaken)
		return
	} else if !errors.Is(err, ports.ErrNotFound) {
		h.internalError(w, "lookup account", err)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.internalError(w, "hash password", err)
		return
	}

	acct := ports.Account{
		ID:           h.idGen.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Create(ctx, acct); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			h.authFailure("duplicate")
			writeError(w, http.StatusConflict, MsgEmailTaken)
			return
		}
		h.internalError(w, "create account", err)
		return
	}

	if !h.startSession(w, r, acct) {
		return
	}

	h.logger.Info().Str("user_id", acct.ID).Str("email", acct.Email).Msg("account created")
	writeJSON(w, http.StatusCreated, acct.User())
}

// Login checks credentials and starts a session.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domainAuth.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if v := domainAuth.ValidateLogin(req); !v.Valid {
		h.authFailure("validation")
		writeError(w, http.StatusUnprocessableEntity, firstError(v.Errors, "email", "password"))
		return
	}

	acct, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		h.internalError(w, "lookup account", err)
		return
	}
	if err != nil || !h.hasher.Compare(acct.PasswordHash, req.Password) {
		h.authFailure("credentials")
		writeError(w, http.StatusUnauthorized, MsgInvalidCredentials)
		return
	}

	if !h.startSession(w, r, acct) {
		return
	}

	h.logger.Info().Str("user_id", acct.ID).Msg("logged in")
	writeJSON(w, http.StatusOK, acct.User())
}

// Logout ends the current session. It always succeeds, even without one.
func (h *APIHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := h.claims(r); ok {
		err := h.sessions.Delete(r.Context(), claims.SessionID)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			h.internalError(w, "delete session", err)
			return
		}
	}

	http.SetCookie(w, auth.ClearCookie(h.secureCookie))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the session's user, or null without a valid session.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.currentAccount(r)
	if !ok {
		if _, err := r.Cookie(auth.CookieName); err == nil {
			http.SetCookie(w, auth.ClearCookie(h.secureCookie))
		}
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, acct.User())
}

// currentAccount resolves the session cookie to a live session record and its account.
func (h *APIHandler) currentAccount(r *http.Request) (ports.Account, bool) {
	claims, ok := h.claims(r)
	if !ok {
		return ports.Account{}, false
	}

	ctx := r.Context()
	rec, err := h.sessions.Get(ctx, claims.SessionID)
	if err != nil || rec.IsExpired() || rec.UserID != claims.Subject {
		return ports.Account{}, false
	}

	acct, err := h.users.Get(ctx, rec.UserID)
	if err != nil {
		return ports.Account{}, false
	}
	return acct, true
}

func (h *APIHandler) claims(r *http.Request) (*auth.Claims, bool) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := h.tokens.Parse(cookie.Value)
	if err != nil {
		h.logger.Debug().Err(err).Msg("rejected session cookie")
		return nil, false
	}
	return claims, true
}

// startSession stores a session record and sets its cookie.
// On failure it writes the error response and returns false.
func (h *APIHandler) startSession(w http.ResponseWriter, r *http.Request, acct ports.Account) bool {
	id, err := random.SessionID(h.random)
	if err != nil {
		h.internalError(w, "session id", err)
		return false
	}
	rec := domainAuth.NewRecord(id, acct.ID, acct.Email, r.RemoteAddr, r.UserAgent(), h.sessionTTL)
	if err := h.sessions.Create(r.Context(), rec); err != nil {
		h.internalError(w, "create session", err)
		return false
	}

	token, err := h.tokens.Issue(rec)
	if err != nil {
		h.internalError(w, "sign session", err)
		return false
	}

	http.SetCookie(w, auth.SessionCookie(token, rec, h.secureCookie))
	return true
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return false
	}
	return true
}

func (h *APIHandler) authFailure(reason string) {
	if h.metrics != nil {
		h.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
}

func (h *APIHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, MsgInternal)
}

// firstError picks the message of the first failing field in order.
func firstError(fields map[string]string, order ...string) string {
	for _, f := range order {
		if msg, ok := fields[f]; ok {
			return msg
		}
	}
	return MsgInvalidBody
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
