// internal/api/respond.go
package api

import (
	"encoding/json"
	"net/http"

	"garage-backoffice/internal/common/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeError translates an internal failure into the public French-language
// error envelope. The oracle's own rejection message and validation details
// are passed through verbatim, everything else gets a fixed message per code.
func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	writeJSON(w, statusFor(code), map[string]string{"error": frenchMessage(code, err)})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeUnknownService,
		errors.ErrCodeInvalidAmount, errors.ErrCodeFileTooLarge:
		return http.StatusBadRequest
	case errors.ErrCodeRecordNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUpstreamUnavailable, errors.ErrCodeUpstreamRejected:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func frenchMessage(code errors.ErrorCode, err error) string {
	stdErr, _ := errors.AsStandard(err)

	switch code {
	case errors.ErrCodeValidationFailed:
		if stdErr != nil && stdErr.Details != "" {
			return stdErr.Details
		}
		return "Les informations saisies sont invalides"
	case errors.ErrCodeUnknownService:
		return "Prestation inconnue"
	case errors.ErrCodeInvalidAmount:
		return "Montant invalide"
	case errors.ErrCodeUpstreamRejected:
		if stdErr != nil {
			return stdErr.Message
		}
		return "La demande a été refusée par le service de calcul"
	case errors.ErrCodeUpstreamUnavailable:
		return "Le service de calcul du coût est momentanément indisponible, veuillez réessayer"
	case errors.ErrCodeFileTooLarge:
		return "Le fichier dépasse la taille maximale autorisée"
	case errors.ErrCodeRecordNotFound:
		return "Enregistrement introuvable"
	case errors.ErrCodeNotificationUnavailable, errors.ErrCodeNotificationSendFailed:
		return "L'envoi de l'email a échoué, veuillez réessayer"
	case errors.ErrCodeMissingCredentials, errors.ErrCodeConfigurationError:
		return "Le service est mal configuré, veuillez contacter le garage"
	default:
		return "Une erreur est survenue, veuillez réessayer"
	}
}
