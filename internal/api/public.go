// internal/api/public.go
package api

import (
	"net/http"

	"garage-backoffice/internal/catalog"
)

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.All())
}

// handleListVehicles serves the public inventory; with ?q= it becomes a
// free-text search over the index, otherwise the full list from the database.
func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	if query != "" && s.search != nil {
		vehicles, err := s.search.SearchVehicles(r.Context(), query, 30)
		if err != nil {
			s.logger.Error("Vehicle search failed", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "La recherche est indisponible"})
			return
		}
		writeJSON(w, http.StatusOK, vehicles)
		return
	}

	vehicles, err := s.vehicles.ListVehicles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) handleListRentalVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.vehicles.ListRentalVehicles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (s *Server) handleListServicePrices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.prices.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
