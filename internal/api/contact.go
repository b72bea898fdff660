// internal/api/contact.go
package api

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"garage-backoffice/internal/mailer"
)

type contactRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Subject         string `json:"subject"`
	Message         string `json:"message"`
	SelectedVehicle string `json:"selectedVehicle,omitempty"`
}

func (c contactRequest) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Phone, validation.Length(0, 30)),
		validation.Field(&c.Message, validation.Required, validation.Length(1, 5000)),
		validation.Field(&c.Subject, validation.Length(0, 300)),
	)
}

// handleContact relays the public contact form: one copy to the garage, one
// confirmation to the sender.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Formulaire incomplet : " + err.Error()})
		return
	}

	err := s.mailer.SendContactEmail(r.Context(), &mailer.ContactPayload{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Subject:         req.Subject,
		Message:         req.Message,
		SelectedVehicle: req.SelectedVehicle,
	})
	if err != nil {
		s.logger.Error("Contact email failed", map[string]interface{}{
			"error": err.Error(),
		})
		writeError(w, err)
		return
	}

	writeSuccess(w)
}
