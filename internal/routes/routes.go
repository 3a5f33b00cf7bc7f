package routes

import (
	"net/http"

	"github.com/friendmap/plans-api/internal/handlers"
	"github.com/gorilla/mux"
)

// NewRouter sets up the API routes.
func NewRouter(
	auth *handlers.AuthHandler,
	plan *handlers.PlanHandler,
	member *handlers.MembershipHandler,
	moderation *handlers.ModerationHandler,
	block *handlers.BlockHandler,
	notif *handlers.NotificationHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Everything else requires a verified identity.
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	// Plan CRUD and feed
	api.HandleFunc("/plans", plan.Create).Methods(http.MethodPost)
	api.HandleFunc("/plans", plan.List).Methods(http.MethodGet)
	api.HandleFunc("/plans/{planID}", plan.Get).Methods(http.MethodGet)
	api.HandleFunc("/plans/{planID}", plan.Update).Methods(http.MethodPut)
	api.HandleFunc("/plans/{planID}", plan.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/plans/{planID}/members", plan.Members).Methods(http.MethodGet)

	// Actor transitions
	api.HandleFunc("/plans/{planID}/join", member.Join).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID}/maybe", member.Maybe).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID}/withdraw", member.Withdraw).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID}/accept-invite", member.AcceptInvite).Methods(http.MethodPost)

	// Host moderation
	api.HandleFunc("/plans/{planID}/members/{userID}/approve", moderation.Approve).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID}/members/{userID}/deny", moderation.Deny).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID}/members/{userID}/invite", moderation.Invite).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID}/members/{userID}/kick", moderation.Kick).Methods(http.MethodPost)
	api.HandleFunc("/plans/{planID}/bans", moderation.ListBans).Methods(http.MethodGet)
	api.HandleFunc("/plans/{planID}/bans/{userID}", moderation.Unban).Methods(http.MethodDelete)

	// Blocks
	api.HandleFunc("/blocks/{userID}", block.Block).Methods(http.MethodPost)
	api.HandleFunc("/blocks/{userID}", block.Unblock).Methods(http.MethodDelete)

	// Notifications
	api.HandleFunc("/notifications", notif.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationID}/read", notif.MarkRead).Methods(http.MethodPost)

	return router
}
