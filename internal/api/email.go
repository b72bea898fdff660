// internal/api/email.go
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"garage-backoffice/internal/registration"
)

// recordPayloadSchema validates the raw /api/email body, which carries a full
// registration-shaped document assembled by the caller.
const recordPayloadSchema = `{
	"type": "object",
	"required": ["serviceKey", "contactEmail", "contactPhone"],
	"properties": {
		"id": {"type": "string"},
		"serviceKey": {"type": "string", "minLength": 1},
		"contactEmail": {"type": "string", "format": "email"},
		"contactPhone": {"type": "string", "minLength": 6},
		"taxAmount": {"type": ["string", "number"]},
		"serviceFee": {"type": ["string", "number"]},
		"vehicleInfo": {"type": "object"},
		"documents": {
			"type": "object",
			"additionalProperties": {"type": "string", "format": "uri"}
		}
	}
}`

var recordSchema = gojsonschema.NewStringLoader(recordPayloadSchema)

// handleEmail re-sends the registration email pair for a caller-supplied
// record payload, fetching and attaching each document URL.
func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	result, err := gojsonschema.Validate(recordSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Demande invalide : " + strings.Join(problems, "; "),
		})
		return
	}

	var rec registration.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	if err := s.mailer.SendRegistrationEmails(r.Context(), &rec); err != nil {
		s.logger.Error("Registration email resend failed", map[string]interface{}{
			"registration_id": rec.ID,
			"error":           err.Error(),
		})
		writeError(w, err)
		return
	}

	writeSuccess(w)
}
