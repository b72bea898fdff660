// internal/api/wizard.go
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"garage-backoffice/internal/registration"
	"garage-backoffice/internal/upload"
)

type draftResponse struct {
	Draft *registration.Draft `json:"draft"`
	Total string              `json:"total,omitempty"`
}

func (s *Server) draftResponse(draft *registration.Draft) draftResponse {
	resp := draftResponse{Draft: draft}
	if draft.ServiceKey != "" {
		if total, err := s.wizard.Total(draft); err == nil {
			resp.Total = total.StringFixed(2)
		}
	}
	return resp
}

func (s *Server) handleWizardDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.wizard.Draft(r.Context(), s.sessionID(w, r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftResponse(draft))
}

func (s *Server) handleWizardReset(w http.ResponseWriter, r *http.Request) {
	if err := s.wizard.Reset(r.Context(), s.sessionID(w, r)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

func (s *Server) handleWizardService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceKey string `json:"serviceKey"`
		PostalCode string `json:"postalCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	draft, err := s.wizard.SetService(r.Context(), s.sessionID(w, r), req.ServiceKey, req.PostalCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftResponse(draft))
}

func (s *Server) handleWizardLookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plate string `json:"plate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	draft, err := s.wizard.RunLookup(r.Context(), s.sessionID(w, r), req.Plate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftResponse(draft))
}

// handleWizardDocuments receives one or more files for a document type as
// multipart form data, stores them and records their URLs on the draft.
func (s *Server) handleWizardDocuments(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(w, r)

	if err := r.ParseMultipartForm(upload.MaxBatchBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Formulaire multipart invalide"})
		return
	}

	documentType := r.FormValue("documentType")
	if documentType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Type de document manquant"})
		return
	}

	form := r.MultipartForm
	headers := form.File["files"]
	if len(headers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Aucun fichier fourni"})
		return
	}

	files := make([]upload.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Fichier illisible"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Fichier illisible"})
			return
		}
		files = append(files, upload.File{
			Name:        header.Filename,
			Data:        data,
			ContentType: header.Header.Get("Content-Type"),
		})
	}

	urls, err := s.uploads.UploadBatch(r.Context(), files, "registrations/"+sessionID+"/"+documentType)
	if err != nil {
		writeError(w, err)
		return
	}

	var draft *registration.Draft
	for _, url := range urls {
		if draft, err = s.wizard.AddDocument(r.Context(), sessionID, documentType, url); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.draftResponse(draft))
}

func (s *Server) handleWizardContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Corps de requête invalide"})
		return
	}

	draft, err := s.wizard.SetContact(r.Context(), s.sessionID(w, r), req.Email, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftResponse(draft))
}

func (s *Server) handleWizardAdvance(w http.ResponseWriter, r *http.Request) {
	draft, err := s.wizard.Advance(r.Context(), s.sessionID(w, r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftResponse(draft))
}

func (s *Server) handleWizardBack(w http.ResponseWriter, r *http.Request) {
	draft, err := s.wizard.Back(r.Context(), s.sessionID(w, r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.draftResponse(draft))
}

func (s *Server) handleWizardSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(w, r)

	rec, draft, err := s.wizard.Submit(r.Context(), sessionID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"registrationId": rec.ID,
		"draft":          draft,
	})
}
