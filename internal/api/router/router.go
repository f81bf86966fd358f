package router

import (
	"encoding/json"
	"net/http"

	"trackmate/internal/api/handler"
	"trackmate/internal/api/middleware"
	"trackmate/internal/core/service"
	"trackmate/internal/sms"
)

type Deps struct {
	FixService      service.FixService
	GeofenceService service.GeofenceService
	CommandService  service.CommandService
	PollingService  service.PollingService
	SmsRouter       *sms.Router
	LocatorNumber   string
	JWTSecret       string
}

func NewRouter(deps Deps) http.Handler {
	fixHandler := handler.NewFixHandler(deps.FixService)
	boundaryHandler := handler.NewBoundaryHandler(deps.GeofenceService)
	commandHandler := handler.NewCommandHandler(deps.CommandService, deps.PollingService, deps.LocatorNumber)
	smsHandler := handler.NewSmsHandler(deps.SmsRouter)
	authMiddleware := middleware.NewAuthMiddleware(deps.JWTSecret)

	mux := http.NewServeMux()

	withMiddleware := func(handler http.Handler) http.Handler {
		return middleware.CORSMiddleware(
			middleware.LoggingMiddleware(
				authMiddleware.Authenticate(handler),
			),
		)
	}

	// Health check stays outside auth so load balancers can reach it.
	mux.Handle("/health", middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	})))

	mux.Handle("/api/commands", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			commandHandler.Send(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/polling/session", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		commandHandler.Session(w, r)
	})))

	mux.Handle("/api/fixes", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			fixHandler.AddFix(w, r)
		case http.MethodDelete:
			fixHandler.PurgeFixes(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/fixes/list", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fixHandler.GetFixes(w, r)
	})))

	mux.Handle("/api/fixes/latest", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fixHandler.GetLatestFix(w, r)
	})))

	mux.Handle("/api/boundaries", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			boundaryHandler.Create(w, r)
		case http.MethodDelete:
			boundaryHandler.Delete(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/boundaries/list", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		boundaryHandler.List(w, r)
	})))

	mux.Handle("/api/sms/inbound", withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		smsHandler.Inbound(w, r)
	})))

	return mux
}
