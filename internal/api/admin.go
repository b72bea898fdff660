// internal/api/admin.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"garage-backoffice/internal/inventory"
	"garage-backoffice/internal/registration"
	"garage-backoffice/internal/serviceprice"
)

// ==========================
// Registrations
// ==========================

func (s *Server) handleAdminListRegistrations(w http.ResponseWriter, r *http.Request) {
	limit := s.listPageDefault
	offset := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	records, err := s.store.ListAll(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAdminRegistrationStream serves the live admin feed as server-sent
// events: the current snapshot first, then one event per store change.
func (s *Server) handleAdminRegistrationStream(w http.ResponseWriter, r *http.Request) {
	if s.subscriber == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "Flux temps réel indisponible"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Flux temps réel indisponible"})
		return
	}

	snapshot, events, err := s.subscriber.Subscribe(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(name string, payload interface{}) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeEvent("snapshot", snapshot) {
		return
	}

	for event := range events {
		if !writeEvent("change", event) {
			return
		}
	}
}

func (s *Server) handleAdminSetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	if err := s.store.SetStatus(r.Context(), id, registration.Status(req.Status)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// ==========================
// Vehicles
// ==========================

func (s *Server) handleAdminCreateVehicle(w http.ResponseWriter, r *http.Request) {
	var v inventory.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	id, err := s.vehicles.CreateVehicle(r.Context(), &v)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAdminUpdateVehicle(w http.ResponseWriter, r *http.Request) {
	var v inventory.Vehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}
	v.ID = r.PathValue("id")

	if err := s.vehicles.UpdateVehicle(r.Context(), &v); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleAdminDeleteVehicle(w http.ResponseWriter, r *http.Request) {
	if err := s.vehicles.DeleteVehicle(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// ==========================
// Rental vehicles
// ==========================

func (s *Server) handleAdminCreateRentalVehicle(w http.ResponseWriter, r *http.Request) {
	var v inventory.RentalVehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	id, err := s.vehicles.CreateRentalVehicle(r.Context(), &v)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAdminUpdateRentalVehicle(w http.ResponseWriter, r *http.Request) {
	var v inventory.RentalVehicle
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}
	v.ID = r.PathValue("id")

	if err := s.vehicles.UpdateRentalVehicle(r.Context(), &v); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleAdminDeleteRentalVehicle(w http.ResponseWriter, r *http.Request) {
	if err := s.vehicles.DeleteRentalVehicle(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// ==========================
// Service prices
// ==========================

func (s *Server) handleAdminCreateServicePrice(w http.ResponseWriter, r *http.Request) {
	var entry serviceprice.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	id, err := s.prices.Create(r.Context(), &entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleAdminUpdateServicePrice(w http.ResponseWriter, r *http.Request) {
	var entry serviceprice.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}
	entry.ID = r.PathValue("id")

	if err := s.prices.Update(r.Context(), &entry); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleAdminDeleteServicePrice(w http.ResponseWriter, r *http.Request) {
	if err := s.prices.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}
