package http

import (
	"net/http"

	"visit-tracking-service/internal/delivery/http/handler"
	"visit-tracking-service/internal/delivery/http/middleware"
	"visit-tracking-service/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router         *mux.Router
	visitHandler   *handler.VisitHandler
	healthHandler  *handler.HealthHandler
	corsMiddleware *middleware.CORSMiddleware
	requestLogger  *middleware.RequestLogger
}

func NewRouter(
	visitHandler *handler.VisitHandler,
	healthHandler *handler.HealthHandler,
	corsMiddleware *middleware.CORSMiddleware,
	requestLogger *middleware.RequestLogger,
) *Router {
	return &Router{
		router:         mux.NewRouter(),
		visitHandler:   visitHandler,
		healthHandler:  healthHandler,
		corsMiddleware: corsMiddleware,
		requestLogger:  requestLogger,
	}
}

func (r *Router) Setup() *mux.Router {
	r.router.NotFoundHandler = http.HandlerFunc(notFound)
	r.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api := r.router.PathPrefix("/api").Subrouter()
	// A method mismatch inside a subrouter is only reported as 405 when the
	// subrouter has its own handler
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Health check
	api.HandleFunc("/health", r.healthHandler.Health).Methods(http.MethodGet)

	// Visits
	api.HandleFunc("/visits", r.visitHandler.CreateVisit).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/visits/patients", r.visitHandler.ListPatients).Methods(http.MethodGet, http.MethodOptions)

	r.router.Use(r.requestLogger.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	response.NotFound(w, "")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	response.MethodNotAllowed(w, "")
}
