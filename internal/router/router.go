// Package router wires the HTTP surface: registration, login, shortening,
// redirecting, listing and the internal endpoints.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sgurov/linkshrt/internal/auth"
	"github.com/sgurov/linkshrt/internal/authenticator"
	"github.com/sgurov/linkshrt/internal/gzippedhttp"
	"github.com/sgurov/linkshrt/internal/ipchecker"
	"github.com/sgurov/linkshrt/internal/logger"
	"github.com/sgurov/linkshrt/internal/metrics"
	"github.com/sgurov/linkshrt/internal/models"
	"github.com/sgurov/linkshrt/internal/service"
	"github.com/sgurov/linkshrt/internal/user"
)

type linkService interface {
	Register(ctx context.Context, name, email, password string) (*user.User, error)
	Authenticate(ctx context.Context, name, password string) (*user.User, error)
	CreateLink(ctx context.Context, ownerID, longURL string) (*models.ShortLink, error)
	Resolve(ctx context.Context, shortCode string) (string, error)
	ListLinksForUser(ctx context.Context, ownerID string) (models.UserLinks, error)
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (models.StatsResponse, error)
	ShortURL(shortCode string) string
}

// Router holds the HTTP handlers of the application.
type Router struct {
	svc      linkService
	sessions authenticator.Authenticator
	validate *validator.Validate
}

// New assembles the chi router with all middleware and routes.
func New(
	svc linkService,
	sessions authenticator.Authenticator,
	statsGuard *ipchecker.IPChecker,
	httpMetrics *metrics.HTTPMetrics,
) http.Handler {
	myRouter := &Router{
		svc:      svc,
		sessions: sessions,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		httpMetrics.Middleware,
		gzippedhttp.UngzipRequest,
	)

	router.Get(`/ping`, myRouter.GetPing)
	router.Method(http.MethodGet, `/metrics`, httpMetrics.Handler())
	router.With(statsGuard.Guard).Get(`/api/internal/stats`, myRouter.GetAPIInternalStats)

	router.Group(func(router chi.Router) {
		router.Use(gzippedhttp.GzipResponse)

		router.Post(`/api/user/register`, myRouter.PostAPIUserRegister)
		router.Post(`/api/user/login`, myRouter.PostAPIUserLogin)
		router.Post(`/api/user/logout`, myRouter.PostAPIUserLogout)

		router.With(sessions.RequireUser).Post(`/api/shorten`, myRouter.PostAPIShorten)
		router.With(sessions.RequireUser).Post(`/`, myRouter.PostShorten)
		router.With(sessions.RequireUser).Get(`/api/user/urls`, myRouter.GetAPIUserURLs)

		router.Get(`/`, myRouter.GetIndex)
		router.Get(`/{short}`, myRouter.GetRedirectToLongURL)
	})

	return router
}

// PostAPIUserRegister handles the registration form: it validates the
// request, creates the user and returns its public representation.
func (router *Router) PostAPIUserRegister(res http.ResponseWriter, req *http.Request) {
	var request models.RegisterRequest
	if !router.decodeAndValidate(res, req, &request) {
		return
	}

	usr, err := router.svc.Register(req.Context(), request.Name, request.Email, request.Password)
	if errors.Is(err, service.ErrNameTaken) {
		http.Error(res, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `svc.Register()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(res, http.StatusCreated, usr.ToPublic())
}

// PostAPIUserLogin verifies the credentials and, on success, attaches a
// session token to the response.
func (router *Router) PostAPIUserLogin(res http.ResponseWriter, req *http.Request) {
	var request models.LoginRequest
	if !router.decodeAndValidate(res, req, &request) {
		return
	}

	usr, err := router.svc.Authenticate(req.Context(), request.Name, request.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		http.Error(res, err.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `svc.Authenticate()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := router.sessions.IssueSession(res, usr.ID); err != nil {
		logger.Log.Debugln("Error calling the `sessions.IssueSession()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(res, http.StatusOK, usr.ToPublic())
}

// PostAPIUserLogout drops the session cookie.
func (router *Router) PostAPIUserLogout(res http.ResponseWriter, req *http.Request) {
	router.sessions.DropSession(res)
	res.WriteHeader(http.StatusNoContent)
}

// PostAPIShorten shortens the URL from a JSON request for the authenticated
// user.
func (router *Router) PostAPIShorten(res http.ResponseWriter, req *http.Request) {
	userID, ok := req.Context().Value(auth.UserIDKey).(string)
	if !ok || userID == "" {
		res.WriteHeader(http.StatusUnauthorized)
		return
	}

	var request models.ShortenRequest
	if !router.decodeAndValidate(res, req, &request) {
		return
	}

	link, err := router.svc.CreateLink(req.Context(), userID, request.URL)
	if errors.Is(err, service.ErrCodeConflict) {
		http.Error(res, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `svc.CreateLink()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(res, http.StatusCreated, models.ShortenResponse{
		Result: router.svc.ShortURL(link.ShortCode),
	})
}

// PostShorten shortens a URL passed as a plain-text request body.
func (router *Router) PostShorten(res http.ResponseWriter, req *http.Request) {
	userID, ok := req.Context().Value(auth.UserIDKey).(string)
	if !ok || userID == "" {
		res.WriteHeader(http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}

	longURL := strings.TrimSpace(string(body))
	if longURL == "" {
		http.Error(res, "the request body must contain a URL", http.StatusBadRequest)
		return
	}

	link, err := router.svc.CreateLink(req.Context(), userID, longURL)
	if errors.Is(err, service.ErrCodeConflict) {
		http.Error(res, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `svc.CreateLink()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusCreated)
	if _, err := res.Write([]byte(router.svc.ShortURL(link.ShortCode))); err != nil {
		logger.Log.Debugln("Error writing the response: ", zap.Error(err))
	}
}

// GetRedirectToLongURL resolves a short code and redirects to the original
// URL. An unknown code redirects to the index page, never to an error page.
func (router *Router) GetRedirectToLongURL(res http.ResponseWriter, req *http.Request) {
	short := chi.URLParam(req, "short")

	longURL, err := router.svc.Resolve(req.Context(), short)
	if errors.Is(err, service.ErrLinkNotFound) {
		http.Redirect(res, req, "/", http.StatusFound)
		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `svc.Resolve()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	http.Redirect(res, req, longURL, http.StatusTemporaryRedirect)
}

// GetAPIUserURLs returns the authenticated user's links.
func (router *Router) GetAPIUserURLs(res http.ResponseWriter, req *http.Request) {
	userID, ok := req.Context().Value(auth.UserIDKey).(string)
	if !ok || userID == "" {
		res.WriteHeader(http.StatusUnauthorized)
		return
	}

	links, err := router.svc.ListLinksForUser(req.Context(), userID)
	if err != nil {
		logger.Log.Debugln("Error calling the `svc.ListLinksForUser()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	if len(links) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(res, http.StatusOK, links)
}

// GetIndex is the home destination unknown short codes are redirected to.
func (router *Router) GetIndex(res http.ResponseWriter, req *http.Request) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := res.Write([]byte("linkshrt: POST a URL to /api/shorten to get a short link")); err != nil {
		logger.Log.Debugln("Error writing the response: ", zap.Error(err))
	}
}

// GetPing reports the storage health.
func (router *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := router.svc.Ping(req.Context()); err != nil {
		logger.Log.Debugln("Error calling the `svc.Ping()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// GetAPIInternalStats returns totals for monitoring; the ipchecker guard in
// front of it limits access to the trusted subnet.
func (router *Router) GetAPIInternalStats(res http.ResponseWriter, req *http.Request) {
	stats, err := router.svc.Stats(req.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `svc.Stats()`: ", zap.Error(err))
		res.WriteHeader(http.StatusInternalServerError)
		return
	}

	writeJSON(res, http.StatusOK, stats)
}

func (router *Router) decodeAndValidate(res http.ResponseWriter, req *http.Request, target interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(target); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return false
	}

	if err := router.validate.Struct(target); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return false
	}

	return true
}

func writeJSON(res http.ResponseWriter, statusCode int, payload interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	if err := json.NewEncoder(res).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response: ", zap.Error(err))
	}
}
