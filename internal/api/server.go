// internal/api/server.go
package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"garage-backoffice/internal/common/auth"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/observability"
	"garage-backoffice/internal/inventory"
	"garage-backoffice/internal/mailer"
	"garage-backoffice/internal/registration"
	"garage-backoffice/internal/serviceprice"
	"garage-backoffice/internal/upload"
)

const sessionCookie = "garage_session"

// Subscriber is the live change feed capability of the record store.
type Subscriber interface {
	Subscribe(ctx context.Context) ([]registration.Record, <-chan registration.ChangeEvent, error)
}

// Server wires the HTTP surface: the public site endpoints, the wizard
// session API and the bearer-gated admin area.
type Server struct {
	logger     logger.Logger
	obs        *observability.Observability
	authorizer auth.Authorizer

	wizard     *registration.Wizard
	store      registration.Store
	subscriber Subscriber
	uploads    *upload.Service
	mailer     *mailer.Service
	vehicles   *inventory.Repository
	search     *inventory.SearchIndex
	prices     *serviceprice.Editor

	listPageDefault int
}

type ServerDeps struct {
	Logger          logger.Logger
	Observability   *observability.Observability
	Authorizer      auth.Authorizer
	Wizard          *registration.Wizard
	Store           registration.Store
	Subscriber      Subscriber
	Uploads         *upload.Service
	Mailer          *mailer.Service
	Vehicles        *inventory.Repository
	Search          *inventory.SearchIndex
	Prices          *serviceprice.Editor
	ListPageDefault int
}

func NewServer(deps ServerDeps) *Server {
	listPageDefault := deps.ListPageDefault
	if listPageDefault <= 0 {
		listPageDefault = 50
	}
	return &Server{
		logger:          deps.Logger,
		obs:             deps.Observability,
		authorizer:      deps.Authorizer,
		wizard:          deps.Wizard,
		store:           deps.Store,
		subscriber:      deps.Subscriber,
		uploads:         deps.Uploads,
		mailer:          deps.Mailer,
		vehicles:        deps.Vehicles,
		search:          deps.Search,
		prices:          deps.Prices,
		listPageDefault: listPageDefault,
	}
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// public
	mux.HandleFunc("POST /api/contact", s.handleContact)
	mux.HandleFunc("POST /api/email", s.handleEmail)
	mux.HandleFunc("GET /api/services", s.handleListServices)
	mux.HandleFunc("GET /api/vehicles", s.handleListVehicles)
	mux.HandleFunc("GET /api/rental-vehicles", s.handleListRentalVehicles)
	mux.HandleFunc("GET /api/service-prices", s.handleListServicePrices)

	// wizard session
	mux.HandleFunc("GET /api/wizard/draft", s.handleWizardDraft)
	mux.HandleFunc("DELETE /api/wizard/draft", s.handleWizardReset)
	mux.HandleFunc("POST /api/wizard/service", s.handleWizardService)
	mux.HandleFunc("POST /api/wizard/lookup", s.handleWizardLookup)
	mux.HandleFunc("POST /api/wizard/documents", s.handleWizardDocuments)
	mux.HandleFunc("POST /api/wizard/contact", s.handleWizardContact)
	mux.HandleFunc("POST /api/wizard/advance", s.handleWizardAdvance)
	mux.HandleFunc("POST /api/wizard/back", s.handleWizardBack)
	mux.HandleFunc("POST /api/wizard/submit", s.handleWizardSubmit)

	// admin
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return requireAdmin(s.authorizer, s.logger, h)
	}
	mux.HandleFunc("GET /api/admin/registrations", admin(s.handleAdminListRegistrations))
	mux.HandleFunc("GET /api/admin/registrations/stream", admin(s.handleAdminRegistrationStream))
	mux.HandleFunc("PATCH /api/admin/registrations/{id}/status", admin(s.handleAdminSetStatus))
	mux.HandleFunc("POST /api/admin/vehicles", admin(s.handleAdminCreateVehicle))
	mux.HandleFunc("PUT /api/admin/vehicles/{id}", admin(s.handleAdminUpdateVehicle))
	mux.HandleFunc("DELETE /api/admin/vehicles/{id}", admin(s.handleAdminDeleteVehicle))
	mux.HandleFunc("POST /api/admin/rental-vehicles", admin(s.handleAdminCreateRentalVehicle))
	mux.HandleFunc("PUT /api/admin/rental-vehicles/{id}", admin(s.handleAdminUpdateRentalVehicle))
	mux.HandleFunc("DELETE /api/admin/rental-vehicles/{id}", admin(s.handleAdminDeleteRentalVehicle))
	mux.HandleFunc("POST /api/admin/service-prices", admin(s.handleAdminCreateServicePrice))
	mux.HandleFunc("PUT /api/admin/service-prices/{id}", admin(s.handleAdminUpdateServicePrice))
	mux.HandleFunc("DELETE /api/admin/service-prices/{id}", admin(s.handleAdminDeleteServicePrice))

	// operational
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return withTelemetry(s.logger, s.obs, mux)
}

// sessionID reads the wizard session cookie, assigning one on first contact.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
