// internal/registration/wizard.go
package registration

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"garage-backoffice/internal/catalog"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/validation"
	"garage-backoffice/internal/lookup"
)

// Wizard step indices. Step 4 is terminal for the session.
const (
	StepService = iota
	StepVehicleDetails
	StepDocuments
	StepSummary
	StepConfirmation
)

// Notifier sends the post-submission email pair.
type Notifier interface {
	SendRegistrationEmails(ctx context.Context, rec *Record) error
}

// Alerter raises an ops alert for a new registration. Alert delivery is best
// effort and never blocks the user.
type Alerter interface {
	PublishAlert(ctx context.Context, subject, message string) error
}

// Wizard orchestrates the 5-step registration flow over a session's draft.
// Step preconditions gate every forward move; backward moves are always
// allowed and never discard collected data.
type Wizard struct {
	drafts  *DraftStore
	store   Store
	oracle  lookup.Oracle
	notifer Notifier
	alerter Alerter
	logger  logger.Logger
}

func NewWizard(drafts *DraftStore, store Store, oracle lookup.Oracle, notifier Notifier, alerter Alerter, log logger.Logger) *Wizard {
	return &Wizard{
		drafts:  drafts,
		store:   store,
		oracle:  oracle,
		notifer: notifier,
		alerter: alerter,
		logger:  log,
	}
}

// Draft returns the session's current draft, creating an empty one if needed.
func (w *Wizard) Draft(ctx context.Context, sessionID string) (*Draft, error) {
	return w.drafts.Load(ctx, sessionID)
}

// Reset discards the session's draft so the wizard starts over at step 0.
func (w *Wizard) Reset(ctx context.Context, sessionID string) error {
	return w.drafts.Clear(ctx, sessionID)
}

// SetService records the chosen service and postal code on the step-0 draft.
// Values are stored as given; the 0->1 precondition is enforced on Advance so
// a failed check never loses input.
func (w *Wizard) SetService(ctx context.Context, sessionID, serviceKey, postalCode string) (*Draft, error) {
	draft, err := w.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if draft.ServiceKey != serviceKey || draft.PostalCode != postalCode {
		// changing the lookup inputs invalidates any in-flight oracle response
		draft.LookupSeq++
		draft.Vehicle = nil
		draft.TaxAmount = decimal.Zero
	}
	draft.ServiceKey = serviceKey
	draft.PostalCode = postalCode

	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// RunLookup calls the tax oracle for the draft's plate and stores the result.
// Each attempt overwrites the previous draft price. A response that arrives
// after the draft's lookup inputs changed again is discarded.
func (w *Wizard) RunLookup(ctx context.Context, sessionID, plate string) (*Draft, error) {
	draft, err := w.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	svc, err := catalog.Get(draft.ServiceKey)
	if err != nil {
		return nil, err
	}
	if !validation.ValidatePlate(plate) {
		return nil, errors.NewValidationFailedError("Numéro d'immatriculation invalide")
	}

	draft.Plate = plate
	draft.LookupSeq++
	seq := draft.LookupSeq
	draft.Vehicle = nil
	draft.TaxAmount = decimal.Zero
	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}

	result, err := w.oracle.Lookup(ctx, plate, draft.PostalCode, svc.ProcedureCode)
	if err != nil {
		return nil, err
	}

	// reload and guard against a newer draft having superseded this request
	draft, loadErr := w.drafts.Load(ctx, sessionID)
	if loadErr != nil {
		return nil, loadErr
	}
	if draft.LookupSeq != seq {
		w.logger.Debug("Discarding stale lookup response", map[string]interface{}{
			"session_id": sessionID,
			"plate":      plate,
		})
		return draft, nil
	}

	draft.Vehicle = &result.Vehicle
	draft.TaxAmount = result.Price.Total
	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// AddDocument appends an uploaded URL under the given document type.
func (w *Wizard) AddDocument(ctx context.Context, sessionID, documentType, url string) (*Draft, error) {
	draft, err := w.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	draft.Documents[documentType] = append(draft.Documents[documentType], url)

	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// SetContact records the step-3 contact fields. Validation happens on Submit.
func (w *Wizard) SetContact(ctx context.Context, sessionID, email, phone string) (*Draft, error) {
	draft, err := w.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	draft.ContactEmail = email
	draft.ContactPhone = phone

	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Advance moves the draft one step forward when the current step's
// precondition holds. A failed precondition leaves the draft untouched.
func (w *Wizard) Advance(ctx context.Context, sessionID string) (*Draft, error) {
	draft, err := w.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch draft.Step {
	case StepService:
		if err := w.checkServiceStep(draft); err != nil {
			return nil, err
		}
	case StepVehicleDetails:
		if err := w.checkVehicleStep(draft); err != nil {
			return nil, err
		}
	case StepDocuments:
		if err := w.checkDocumentsStep(draft); err != nil {
			return nil, err
		}
	case StepSummary:
		return nil, errors.NewValidationFailedError("L'étape de récapitulatif se valide par la soumission")
	default:
		return nil, errors.NewValidationFailedError("La demande est déjà confirmée")
	}

	draft.Step++
	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Back moves one step backward. No precondition; collected data in later
// steps is kept. Step 4 offers no backward navigation.
func (w *Wizard) Back(ctx context.Context, sessionID string) (*Draft, error) {
	draft, err := w.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if draft.Step == StepService || draft.Step == StepConfirmation {
		return draft, nil
	}

	draft.Step--
	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Submit validates the contact fields, persists the record and sends both
// notification emails. The draft only reaches the confirmation step when
// persistence and notification both succeed; on any failure it stays on the
// summary step with all data intact.
func (w *Wizard) Submit(ctx context.Context, sessionID, userID string) (*Record, *Draft, error) {
	draft, err := w.drafts.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if draft.Step != StepSummary {
		return nil, nil, errors.NewValidationFailedError("La soumission n'est possible que depuis le récapitulatif")
	}
	if !validation.ValidateEmail(draft.ContactEmail) {
		return nil, nil, errors.NewValidationFailedError("Adresse email invalide")
	}
	if !validation.ValidateFrenchPhone(draft.ContactPhone) {
		return nil, nil, errors.NewValidationFailedError("Numéro de téléphone invalide")
	}

	svc, err := catalog.Get(draft.ServiceKey)
	if err != nil {
		return nil, nil, err
	}

	rec := &Record{
		UserID:       userID,
		ServiceKey:   draft.ServiceKey,
		TaxAmount:    draft.TaxAmount,
		ServiceFee:   svc.Fee,
		ContactEmail: draft.ContactEmail,
		ContactPhone: draft.ContactPhone,
		Documents:    latestDocuments(draft.Documents),
	}
	if draft.Vehicle != nil {
		rec.Vehicle = *draft.Vehicle
	} else {
		rec.Vehicle = lookup.VehicleInfo{Plate: draft.Plate}
	}

	id, err := w.store.Create(ctx, userID, rec)
	if err != nil {
		return nil, nil, err
	}
	rec.ID = id
	rec.UserID = userID
	rec.Status = StatusPending

	if err := w.notifer.SendRegistrationEmails(ctx, rec); err != nil {
		return nil, nil, err
	}

	if w.alerter != nil {
		subject := "Nouvelle demande de carte grise"
		message := fmt.Sprintf("Demande %s (%s) soumise par %s", id, svc.DisplayName, draft.ContactEmail)
		if alertErr := w.alerter.PublishAlert(ctx, subject, message); alertErr != nil {
			w.logger.Warn("Failed to publish registration alert", map[string]interface{}{
				"registration_id": id,
				"error":           alertErr.Error(),
			})
		}
	}

	draft.Step = StepConfirmation
	if err := w.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, nil, err
	}

	w.logger.Info("Registration submitted", map[string]interface{}{
		"registration_id": id,
		"service_key":     draft.ServiceKey,
	})

	return rec, draft, nil
}

// Total is the price shown on the summary step: the oracle tax (zero for
// flat-fee services) plus the flat catalog fee.
func (w *Wizard) Total(draft *Draft) (decimal.Decimal, error) {
	svc, err := catalog.Get(draft.ServiceKey)
	if err != nil {
		return decimal.Zero, err
	}
	return draft.TaxAmount.Add(svc.Fee), nil
}

func (w *Wizard) checkServiceStep(draft *Draft) error {
	if _, err := catalog.Get(draft.ServiceKey); err != nil {
		return err
	}
	if !validation.ValidatePostalCode(draft.PostalCode) {
		return errors.NewValidationFailedError("Code postal invalide (5 chiffres attendus)")
	}
	return nil
}

func (w *Wizard) checkVehicleStep(draft *Draft) error {
	if !catalog.IsOwnershipTransfer(draft.ServiceKey) {
		// flat-fee services have no lookup requirement and no tax component
		draft.TaxAmount = decimal.Zero
		return nil
	}
	if draft.Vehicle == nil {
		return errors.NewValidationFailedError("Le calcul du coût de la carte grise est requis avant de continuer")
	}
	return nil
}

func (w *Wizard) checkDocumentsStep(draft *Draft) error {
	svc, err := catalog.Get(draft.ServiceKey)
	if err != nil {
		return err
	}

	var missing []string
	for _, docType := range svc.RequiredDocuments {
		if len(draft.Documents[docType]) == 0 {
			missing = append(missing, docType)
		}
	}
	if len(missing) > 0 {
		return errors.NewValidationFailedError(
			fmt.Sprintf("Documents manquants: %s", strings.Join(missing, ", ")))
	}
	return nil
}

// latestDocuments keeps the most recent upload per document type.
func latestDocuments(documents map[string][]string) map[string]string {
	out := make(map[string]string, len(documents))
	for docType, urls := range documents {
		if len(urls) > 0 {
			out[docType] = urls[len(urls)-1]
		}
	}
	return out
}
