// internal/api/api.go

// Package api exposes the movie and actor operations over HTTP. Every
// protected route is registered together with the permission it requires,
// and the authorization gate runs before the request body is read.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"castingagency/internal/auth"
	"castingagency/internal/contextutil"
	"castingagency/internal/domain"
	"castingagency/internal/httputils"
	"castingagency/internal/observability"
	"castingagency/internal/observability/logging"
	"castingagency/internal/store"
)

// Prefix is the path prefix of all routes
const Prefix = "/api/v1"

const maxBodyBytes = 1 << 20

// Error messages of the JSON error boundary
const (
	MsgNotFound         = "Resource was not found"
	MsgUnprocessable    = "Unprocessable Entity"
	MsgBadRequest       = "Bad request"
	MsgMethodNotAllowed = "Method not found"
	MsgInternal         = "Internal Server error"
)

var errBadRequest = errors.New("bad request")

// Authorizer authorizes a request for a permission and returns the request
// carrying the caller's claims
type Authorizer interface {
	AuthorizeRequest(r *http.Request, required auth.Permission) (*http.Request, *auth.ClaimSet, error)
}

// ProtectedHandler runs an operation for an authorized caller
type ProtectedHandler func(w http.ResponseWriter, r *http.Request, claims *auth.ClaimSet)

// Config holds API options
type Config struct {
	// AllowedOrigins lists origins allowed by CORS
	AllowedOrigins []string
}

// API routes the resource operations
type API struct {
	*mux.Router
	repo   store.Repository
	authz  Authorizer
	logger *logging.Logger
	cors   func(http.Handler) http.Handler
}

// New creates the API router
func New(cfg Config, repo store.Repository, authorizer Authorizer, logger *logging.Logger) *API {
	if logger == nil {
		logger = logging.Discard()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	a := &API{
		Router: mux.NewRouter(),
		repo:   repo,
		authz:  authorizer,
		logger: logger.WithModule("api"),
		cors: handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
			handlers.AllowCredentials(),
		),
	}
	a.setupRoutes()
	return a
}

// Handler returns the router wrapped with CORS
func (a *API) Handler() http.Handler {
	return a.cors(a.Router)
}

// Operation describes a protected route
type Operation struct {
	Method     string
	Path       string
	Permission auth.Permission
	Handler    ProtectedHandler
}

// Operations lists every protected route with its permission
func (a *API) Operations() []Operation {
	return []Operation{
		{http.MethodGet, "/movies", auth.GetMovies, a.listMovies},
		{http.MethodPost, "/movies", auth.PostMovies, a.createMovie},
		{http.MethodPatch, "/movies/{id:[0-9]+}", auth.PatchMovies, a.updateMovie},
		{http.MethodDelete, "/movies/{id:[0-9]+}", auth.DeleteMovies, a.deleteMovie},
		{http.MethodGet, "/actors", auth.GetActors, a.listActors},
		{http.MethodPost, "/actors", auth.PostActors, a.createActor},
		{http.MethodPatch, "/actors/{id:[0-9]+}", auth.PatchActors, a.updateActor},
		{http.MethodDelete, "/actors/{id:[0-9]+}", auth.DeleteActors, a.deleteActor},
	}
}

func (a *API) setupRoutes() {
	a.Use(routeLabel)

	v1 := a.PathPrefix(Prefix).Subrouter()
	v1.Path("/").Methods(http.MethodGet).HandlerFunc(a.index)
	a.Path(Prefix).Methods(http.MethodGet).HandlerFunc(a.index)

	for _, op := range a.Operations() {
		a.logger.Debug("Registering route", "method", op.Method, "path", Prefix+op.Path, "permission", op.Permission)
		v1.Path(op.Path).Methods(op.Method).HandlerFunc(a.protect(op.Permission, op.Handler))
	}

	a.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.writeStatus(w, r, http.StatusNotFound, MsgNotFound)
	})
	a.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.writeStatus(w, r, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	})
}

// protect runs the gate for required and only then the operation
func (a *API) protect(required auth.Permission, h ProtectedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r, claims, err := a.authz.AuthorizeRequest(r, required)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		h(w, r, claims)
	}
}

func routeLabel(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				observability.SetRoute(r.Context(), tmpl)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) index(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, r, http.StatusOK, "Casting Agency API")
}

// decode reads a JSON object body into v. A missing or malformed body is a
// bad request.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errBadRequest
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errors.Join(domain.ErrNotFound, err)
	}
	return id, nil
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := httputils.WriteJSON(w, status, v); err != nil {
		contextutil.LoggerOr(r.Context(), a.logger).Warn("Failed to write response", logging.Err(err))
	}
}

func (a *API) writeStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	if err := httputils.WriteError(w, status, message); err != nil {
		contextutil.LoggerOr(r.Context(), a.logger).Warn("Failed to write response", logging.Err(err))
	}
}

// writeError maps err onto the JSON error boundary
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := contextutil.LoggerOr(r.Context(), a.logger)

	if ae, ok := auth.AsAuthError(err); ok {
		a.writeStatus(w, r, ae.StatusCode, ae.Description)
		return
	}

	switch {
	case errors.Is(err, errBadRequest):
		logger.Debug("Rejected request body", logging.Err(err))
		a.writeStatus(w, r, http.StatusBadRequest, MsgBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		a.writeStatus(w, r, http.StatusNotFound, MsgNotFound)
	case errors.Is(err, domain.ErrInvalidInput):
		logger.Info("Rejected invalid input", logging.Err(err))
		a.writeStatus(w, r, http.StatusUnprocessableEntity, MsgUnprocessable)
	default:
		logger.Error("Request failed", logging.Err(err))
		a.writeStatus(w, r, http.StatusInternalServerError, MsgInternal)
	}
}
