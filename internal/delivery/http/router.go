package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"groupevents/internal/delivery/http/controllers"
	"groupevents/internal/delivery/http/helpers"
	"groupevents/internal/delivery/http/middleware"
	"groupevents/internal/domain"
	"groupevents/internal/metrics"
)

// RouterConfig carries everything NewRouter needs. Gatherer and HTTPMetrics may be nil.
type RouterConfig struct {
	Logger         *slog.Logger
	Membership     domain.MembershipService
	Query          domain.QueryService
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
	HTTPMetrics    *metrics.HTTPMetrics
}

// NewRouter initializes the HTTP router with all application routes
// wrapped in CORS, request logging and request metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	groups := controllers.NewGroupController(cfg.Logger, cfg.Membership, cfg.Query)
	participants := controllers.NewParticipantController(cfg.Logger, cfg.Membership, cfg.Query)
	events := controllers.NewEventController(cfg.Logger, cfg.Membership, cfg.Query)
	invitations := controllers.NewInvitationController(cfg.Logger, cfg.Query)

	mux := http.NewServeMux()

	// Groups
	mux.HandleFunc("POST /groups", groups.CreateGroup)
	mux.HandleFunc("GET /groups", groups.ListGroups)
	mux.HandleFunc("GET /groups/{groupID}", groups.GetGroup)
	mux.HandleFunc("GET /groups/{groupID}/events", groups.GroupEvents)
	mux.HandleFunc("GET /groups/{groupID}/participants", groups.GroupParticipants)
	mux.HandleFunc("GET /groups/{groupID}/invitations", groups.GroupInvitations)
	mux.HandleFunc("POST /groups/{groupID}/events", groups.CreateEvent)
	mux.HandleFunc("POST /groups/{groupID}/invitations", groups.InviteToGroup)
	mux.HandleFunc("POST /groups/{groupID}/members", groups.JoinGroup)

	// Participants
	mux.HandleFunc("POST /participants", participants.CreateParticipant)
	mux.HandleFunc("GET /participants/{participantID}", participants.GetParticipant)
	mux.HandleFunc("GET /participants/{participantID}/groups", participants.ParticipantGroups)
	mux.HandleFunc("GET /participants/{participantID}/events", participants.ParticipantEvents)

	// Events
	mux.HandleFunc("GET /events/{eventID}", events.GetEvent)
	mux.HandleFunc("GET /events/{eventID}/group", events.EventGroup)
	mux.HandleFunc("GET /events/{eventID}/participants", events.EventParticipants)
	mux.HandleFunc("POST /events/{eventID}/registrations", events.RegisterForEvent)

	// Invitations
	mux.HandleFunc("GET /invitations", invitations.GetInvitationByEmail)
	mux.HandleFunc("GET /invitations/{invitationID}/groups", invitations.InvitationGroups)

	// Operations
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.Metrics(cfg.HTTPMetrics, handler)
	handler = middleware.LoggingMiddleware(cfg.Logger, handler)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)
	return handler
}
