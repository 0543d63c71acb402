package http

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nestspace/marketplace-service/internal/auth"
	"github.com/nestspace/marketplace-service/internal/cache"
	"github.com/nestspace/marketplace-service/internal/category"
	"github.com/nestspace/marketplace-service/internal/chat"
	"github.com/nestspace/marketplace-service/internal/events"
	"github.com/nestspace/marketplace-service/internal/listing"
	"github.com/nestspace/marketplace-service/internal/mailer"
	"github.com/nestspace/marketplace-service/internal/organization"
	"github.com/nestspace/marketplace-service/internal/payments"
	"github.com/nestspace/marketplace-service/internal/telemetry"
	"github.com/nestspace/marketplace-service/internal/users"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// Dependencies carries everything the router needs to wire handlers
type Dependencies struct {
	DB            *sql.DB
	Cache         cache.Store
	Verifier      *auth.Verifier
	Permissions   auth.Permissions
	Publisher     events.PublisherInterface
	Mailer        mailer.SenderInterface
	Metrics       *telemetry.Metrics
	WebhookSecret string
	InviteBaseURL string
}

// SetupRouter initializes all routes for the application
func SetupRouter(deps Dependencies) *mux.Router {
	userRepo := users.NewRepository(deps.DB)
	userService := users.NewService(userRepo)
	userHandler := users.NewHandler(userService)

	categoryRepo := category.NewRepository(deps.DB)
	var categoryService *category.Service
	if deps.Metrics != nil {
		categoryService = category.NewServiceWithMetrics(categoryRepo, deps.Cache, deps.Metrics)
	} else {
		categoryService = category.NewService(categoryRepo, deps.Cache)
	}
	categoryHandler := category.NewHandler(categoryService)

	orgRepo := organization.NewRepository(deps.DB)
	orgService := organization.NewService(orgRepo, userService, deps.Mailer, deps.Publisher, deps.InviteBaseURL)
	orgHandler := organization.NewHandler(orgService)

	listingRepo := listing.NewRepository(deps.DB)
	listingService := listing.NewService(listingRepo, orgService, deps.Publisher)
	listingHandler := listing.NewHandler(listingService)

	chatRepo := chat.NewRepository(deps.DB)
	chatService := chat.NewService(chatRepo, deps.Publisher)
	chatHandler := chat.NewHandler(chatService)

	paymentsRepo := payments.NewRepository(deps.DB)
	paymentsService := payments.NewService(paymentsRepo, listingService, payments.NewStripeGateway(), deps.Publisher)
	var webhookService *payments.WebhookService
	if deps.Metrics != nil {
		webhookService = payments.NewWebhookServiceWithMetrics(paymentsRepo, deps.Publisher, deps.WebhookSecret, deps.Metrics)
	} else {
		webhookService = payments.NewWebhookService(paymentsRepo, deps.Publisher, deps.WebhookSecret)
	}
	paymentsHandler := payments.NewHandler(paymentsService, webhookService)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("marketplace-service"))

	authed := auth.Middleware(deps.Verifier)
	if deps.Metrics != nil {
		authed = auth.MiddlewareWithMetrics(deps.Verifier, deps.Metrics)
	}
	perms := deps.Permissions

	requirePerm := func(permission string) func(http.Handler) http.Handler {
		if deps.Metrics != nil {
			return auth.RequirePermissionWithMetrics(permission, perms, deps.Metrics)
		}
		return auth.RequirePermission(permission, perms)
	}

	guard := func(permission string, h http.HandlerFunc) http.Handler {
		return authed(requirePerm(permission)(h))
	}

	// Public endpoints
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"marketplace-service"}`))
	}).Methods("GET")

	// Stripe authenticates with the signature header, not a bearer token
	r.HandleFunc("/webhooks/stripe", paymentsHandler.StripeWebhook).Methods("POST")

	// Listing browse endpoints are public; a bearer token is optional and
	// widens visibility to unpublished listings of the caller's organizations
	optional := auth.OptionalMiddleware(deps.Verifier)
	r.Handle("/listings", optional(http.HandlerFunc(listingHandler.ListListings))).Methods("GET")
	r.Handle("/listings/{id}", optional(http.HandlerFunc(listingHandler.GetListing))).Methods("GET")

	// User routes
	r.Handle("/users/me", guard("user:view", userHandler.Me)).Methods("GET")
	r.Handle("/users/me", guard("user:update", userHandler.UpdateMe)).Methods("PATCH")
	r.Handle("/users/{id}", guard("user:view", userHandler.GetUser)).Methods("GET")

	// Category routes
	r.Handle("/categories", guard("category:create", categoryHandler.CreateCategory)).Methods("POST")
	r.Handle("/categories", guard("category:view", categoryHandler.ListCategories)).Methods("GET")
	r.Handle("/categories/{id}", guard("category:view", categoryHandler.GetCategory)).Methods("GET")
	r.Handle("/categories/slug/{slug}", guard("category:view", categoryHandler.GetCategoryBySlug)).Methods("GET")
	r.Handle("/categories/{id}", guard("category:update", categoryHandler.UpdateCategory)).Methods("PUT")
	r.Handle("/categories/{id}", guard("category:delete", categoryHandler.DeleteCategory)).Methods("DELETE")

	// Listing write routes
	r.Handle("/listings", guard("listing:create", listingHandler.CreateListing)).Methods("POST")
	r.Handle("/listings/{id}", guard("listing:update", listingHandler.UpdateListing)).Methods("PUT")
	r.Handle("/listings/{id}", guard("listing:delete", listingHandler.DeleteListing)).Methods("DELETE")

	// Organization routes
	r.Handle("/organizations", guard("organization:create", orgHandler.CreateOrganization)).Methods("POST")
	r.Handle("/organizations", guard("organization:view", orgHandler.ListOrganizations)).Methods("GET")
	r.Handle("/organizations/{id}", guard("organization:view", orgHandler.GetOrganization)).Methods("GET")
	r.Handle("/organizations/{id}", guard("organization:update", orgHandler.UpdateOrganization)).Methods("PUT")
	r.Handle("/organizations/{id}", guard("organization:delete", orgHandler.DeleteOrganization)).Methods("DELETE")

	// Member routes
	r.Handle("/organizations/{id}/members", guard("organization:view", orgHandler.ListMembers)).Methods("GET")
	r.Handle("/organizations/{id}/members/{userId}", guard("organization:update", orgHandler.RemoveMember)).Methods("DELETE")
	r.Handle("/organizations/{id}/members/{userId}", guard("organization:update", orgHandler.ChangeMemberRole)).Methods("PUT")

	// Invitation routes
	r.Handle("/organizations/{id}/invitations", guard("organization:update", orgHandler.InviteMember)).Methods("POST")
	r.Handle("/organizations/{id}/invitations", guard("organization:view", orgHandler.ListInvitations)).Methods("GET")
	r.Handle("/invitations/{id}/accept", guard("invitation:respond", orgHandler.AcceptInvitation)).Methods("POST")
	r.Handle("/invitations/{id}/decline", guard("invitation:respond", orgHandler.DeclineInvitation)).Methods("POST")
	r.Handle("/invitations/{id}", guard("organization:update", orgHandler.RevokeInvitation)).Methods("DELETE")

	// Conversation routes
	r.Handle("/conversations", guard("chat:use", chatHandler.CreateConversation)).Methods("POST")
	r.Handle("/conversations", guard("chat:use", chatHandler.ListConversations)).Methods("GET")
	r.Handle("/conversations/{id}", guard("chat:use", chatHandler.GetConversation)).Methods("GET")
	r.Handle("/conversations/{id}/participants", guard("chat:use", chatHandler.ListParticipants)).Methods("GET")
	r.Handle("/conversations/{id}/messages", guard("chat:use", chatHandler.SendMessage)).Methods("POST")
	r.Handle("/conversations/{id}/messages", guard("chat:use", chatHandler.ListMessages)).Methods("GET")
	r.Handle("/messages/{messageId}/read", guard("chat:use", chatHandler.MarkMessageRead)).Methods("POST")
	r.Handle("/messages/{messageId}/receipts", guard("chat:use", chatHandler.ListReadReceipts)).Methods("GET")

	// Booking routes
	r.Handle("/bookings", guard("booking:create", paymentsHandler.CreateBooking)).Methods("POST")
	r.Handle("/bookings", guard("booking:view", paymentsHandler.ListMyBookings)).Methods("GET")
	r.Handle("/bookings/{id}", guard("booking:view", paymentsHandler.GetBooking)).Methods("GET")
	r.Handle("/bookings/{id}", guard("booking:update", paymentsHandler.CancelBooking)).Methods("DELETE")
	r.Handle("/bookings/{id}/payment", guard("booking:view", paymentsHandler.GetBookingPayment)).Methods("GET")

	return r
}
