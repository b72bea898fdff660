// internal/registration/wizard_test.go
package registration

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/lookup"
)

// ==========================
// Test doubles
// ==========================

type fakeStore struct {
	created   []*Record
	createErr error
}

func (s *fakeStore) Create(_ context.Context, userID string, rec *Record) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	stored := *rec
	stored.UserID = userID
	s.created = append(s.created, &stored)
	return "reg-1", nil
}

func (s *fakeStore) Get(context.Context, string) (*Record, error) { return nil, nil }
func (s *fakeStore) AttachDocument(context.Context, string, string, string) error {
	return nil
}
func (s *fakeStore) ListByUser(context.Context, string) ([]Record, error) { return nil, nil }
func (s *fakeStore) ListAll(context.Context, int, int) ([]Record, error) { return nil, nil }
func (s *fakeStore) SetStatus(context.Context, string, Status) error     { return nil }

type fakeOracle struct {
	result *lookup.Result
	err    error
}

func (o *fakeOracle) Lookup(context.Context, string, string, string) (*lookup.Result, error) {
	return o.result, o.err
}

type fakeNotifier struct {
	sent []*Record
	err  error
}

func (n *fakeNotifier) SendRegistrationEmails(_ context.Context, rec *Record) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, rec)
	return nil
}

type fakeAlerter struct {
	alerts int
}

func (a *fakeAlerter) PublishAlert(context.Context, string, string) error {
	a.alerts++
	return nil
}

func newTestWizard(t *testing.T, store Store, oracle lookup.Oracle, notifier Notifier) (*Wizard, *fakeAlerter) {
	mr := miniredis.RunT(t)
	redisClient := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	drafts := NewDraftStore(redisClient, time.Hour)
	alerter := &fakeAlerter{}
	return NewWizard(drafts, store, oracle, notifier, alerter, logger.NewTestLogger(t)), alerter
}

func transferOracle() *fakeOracle {
	return &fakeOracle{result: &lookup.Result{
		Vehicle: lookup.VehicleInfo{Make: "RENAULT", Model: "CLIO V", Plate: "AB-123-CD"},
		Price:   lookup.Breakdown{Total: decimal.RequireFromString("204.76")},
	}}
}

// walks a transfer draft to the documents step
func draftAtDocuments(t *testing.T, w *Wizard, sessionID string) *Draft {
	ctx := context.Background()
	_, err := w.SetService(ctx, sessionID, "CHANGEMENT DE TITULAIRE", "75011")
	require.NoError(t, err)
	_, err = w.Advance(ctx, sessionID)
	require.NoError(t, err)
	_, err = w.RunLookup(ctx, sessionID, "AB-123-CD")
	require.NoError(t, err)
	draft, err := w.Advance(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, StepDocuments, draft.Step)
	return draft
}

func addAllTransferDocuments(t *testing.T, w *Wizard, sessionID string) {
	ctx := context.Background()
	for _, docType := range []string{
		"carte_grise", "piece_identite", "justificatif_domicile",
		"certificat_cession", "controle_technique",
	} {
		_, err := w.AddDocument(ctx, sessionID, docType, "https://bucket/"+docType+".pdf")
		require.NoError(t, err)
	}
}

// ==========================
// Step transitions
// ==========================

func TestAdvance_ServiceStep(t *testing.T) {
	tests := []struct {
		name       string
		serviceKey string
		postalCode string
		wantStep   int
		wantErr    errors.ErrorCode
	}{
		{
			name:       "valid service and postal code",
			serviceKey: "CHANGEMENT DE TITULAIRE",
			postalCode: "75011",
			wantStep:   StepVehicleDetails,
		},
		{
			name:       "invalid postal code blocks",
			serviceKey: "CHANGEMENT DE TITULAIRE",
			postalCode: "123",
			wantErr:    errors.ErrCodeValidationFailed,
		},
		{
			name:       "unknown service blocks",
			serviceKey: "REPRISE MOTEUR",
			postalCode: "75011",
			wantErr:    errors.ErrCodeUnknownService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWizard(t, &fakeStore{}, transferOracle(), &fakeNotifier{})
			ctx := context.Background()

			_, err := w.SetService(ctx, "sess", tt.serviceKey, tt.postalCode)
			require.NoError(t, err)

			draft, err := w.Advance(ctx, "sess")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, tt.wantErr))

				reloaded, loadErr := w.Draft(ctx, "sess")
				require.NoError(t, loadErr)
				assert.Equal(t, StepService, reloaded.Step, "failed advance must not move the draft")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStep, draft.Step)
		})
	}
}

func TestAdvance_VehicleStep_TransferRequiresLookup(t *testing.T) {
	w, _ := newTestWizard(t, &fakeStore{}, transferOracle(), &fakeNotifier{})
	ctx := context.Background()

	_, err := w.SetService(ctx, "sess", "CHANGEMENT DE TITULAIRE", "75011")
	require.NoError(t, err)
	_, err = w.Advance(ctx, "sess")
	require.NoError(t, err)

	// no lookup yet
	_, err = w.Advance(ctx, "sess")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))

	draft, err := w.RunLookup(ctx, "sess", "AB-123-CD")
	require.NoError(t, err)
	assert.Equal(t, "204.76", draft.TaxAmount.StringFixed(2))

	draft, err = w.Advance(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, StepDocuments, draft.Step)
}

func TestAdvance_VehicleStep_FlatServiceSkipsLookup(t *testing.T) {
	w, _ := newTestWizard(t, &fakeStore{}, transferOracle(), &fakeNotifier{})
	ctx := context.Background()

	_, err := w.SetService(ctx, "sess", "DECLARATION ACHAT", "13001")
	require.NoError(t, err)
	_, err = w.Advance(ctx, "sess")
	require.NoError(t, err)

	draft, err := w.Advance(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, StepDocuments, draft.Step)
	assert.True(t, draft.TaxAmount.IsZero())

	total, err := w.Total(draft)
	require.NoError(t, err)
	assert.Equal(t, "29.00", total.StringFixed(2), "total must equal the flat catalog fee")
}

func TestAdvance_DocumentsStep_ListsMissingTypes(t *testing.T) {
	w, _ := newTestWizard(t, &fakeStore{}, transferOracle(), &fakeNotifier{})
	ctx := context.Background()
	draftAtDocuments(t, w, "sess")

	_, err := w.AddDocument(ctx, "sess", "carte_grise", "https://bucket/cg.pdf")
	require.NoError(t, err)

	_, err = w.Advance(ctx, "sess")
	require.Error(t, err)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Contains(t, stdErr.Details, "piece_identite")
	assert.NotContains(t, stdErr.Details, "carte_grise")

	addAllTransferDocuments(t, w, "sess")

	draft, err := w.Advance(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, StepSummary, draft.Step)
}

func TestBack_AlwaysAllowedAndKeepsData(t *testing.T) {
	w, _ := newTestWizard(t, &fakeStore{}, transferOracle(), &fakeNotifier{})
	ctx := context.Background()
	draftAtDocuments(t, w, "sess")

	_, err := w.AddDocument(ctx, "sess", "carte_grise", "https://bucket/cg.pdf")
	require.NoError(t, err)

	draft, err := w.Back(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, StepVehicleDetails, draft.Step)
	assert.Len(t, draft.Documents["carte_grise"], 1, "backward moves must not clear later-step data")
	assert.NotNil(t, draft.Vehicle)

	// step 0 stays put
	_, err = w.Back(ctx, "sess")
	require.NoError(t, err)
	draft, err = w.Back(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, StepService, draft.Step)
}

// ==========================
// Submission
// ==========================

func submittableDraft(t *testing.T, w *Wizard, sessionID string) {
	ctx := context.Background()
	draftAtDocuments(t, w, sessionID)
	addAllTransferDocuments(t, w, sessionID)
	_, err := w.Advance(ctx, sessionID)
	require.NoError(t, err)
	_, err = w.SetContact(ctx, sessionID, "client@example.com", "+33 6 12 34 56 78")
	require.NoError(t, err)
}

func TestSubmit_PersistsAndNotifies(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	w, alerter := newTestWizard(t, store, transferOracle(), notifier)
	submittableDraft(t, w, "sess")

	rec, draft, err := w.Submit(context.Background(), "sess", "user-1")
	require.NoError(t, err)

	assert.Equal(t, "reg-1", rec.ID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, StepConfirmation, draft.Step)
	require.Len(t, store.created, 1)
	assert.Equal(t, "RENAULT", store.created[0].Vehicle.Make)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 1, alerter.alerts)
	assert.Equal(t, "https://bucket/carte_grise.pdf", rec.Documents["carte_grise"])
}

func TestSubmit_InvalidContactBlocks(t *testing.T) {
	tests := []struct {
		name  string
		email string
		phone string
	}{
		{name: "bad email", email: "not-an-email", phone: "0612345678"},
		{name: "bad phone", email: "client@example.com", phone: "12345"},
		{name: "foreign prefix", email: "client@example.com", phone: "+49 170 1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			w, _ := newTestWizard(t, store, transferOracle(), &fakeNotifier{})
			submittableDraft(t, w, "sess")
			ctx := context.Background()

			_, err := w.SetContact(ctx, "sess", tt.email, tt.phone)
			require.NoError(t, err)

			_, _, err = w.Submit(ctx, "sess", "user-1")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
			assert.Empty(t, store.created)

			draft, loadErr := w.Draft(ctx, "sess")
			require.NoError(t, loadErr)
			assert.Equal(t, StepSummary, draft.Step)
		})
	}
}

func TestSubmit_NotificationFailureStaysOnSummary(t *testing.T) {
	store := &fakeStore{}
	notifier := &fakeNotifier{err: errors.NewNotificationUnavailableError(assert.AnError)}
	w, _ := newTestWizard(t, store, transferOracle(), notifier)
	submittableDraft(t, w, "sess")
	ctx := context.Background()

	_, _, err := w.Submit(ctx, "sess", "user-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotificationUnavailable))

	draft, loadErr := w.Draft(ctx, "sess")
	require.NoError(t, loadErr)
	assert.Equal(t, StepSummary, draft.Step, "partial failure must not reach confirmation")
}

func TestSubmit_StoreFailureStaysOnSummary(t *testing.T) {
	store := &fakeStore{createErr: errors.NewStorageError("create", assert.AnError)}
	notifier := &fakeNotifier{}
	w, _ := newTestWizard(t, store, transferOracle(), notifier)
	submittableDraft(t, w, "sess")
	ctx := context.Background()

	_, _, err := w.Submit(ctx, "sess", "user-1")
	require.Error(t, err)
	assert.Empty(t, notifier.sent, "no email goes out when persistence failed")

	draft, loadErr := w.Draft(ctx, "sess")
	require.NoError(t, loadErr)
	assert.Equal(t, StepSummary, draft.Step)
}

// ==========================
// Lookup staleness
// ==========================

func TestRunLookup_StaleResponseDiscarded(t *testing.T) {
	oracle := transferOracle()
	w, _ := newTestWizard(t, &fakeStore{}, oracle, &fakeNotifier{})
	ctx := context.Background()

	_, err := w.SetService(ctx, "sess", "CHANGEMENT DE TITULAIRE", "75011")
	require.NoError(t, err)
	_, err = w.Advance(ctx, "sess")
	require.NoError(t, err)
	_, err = w.RunLookup(ctx, "sess", "AB-123-CD")
	require.NoError(t, err)

	// changing the service inputs bumps the sequence and clears the result
	draft, err := w.SetService(ctx, "sess", "CHANGEMENT DE TITULAIRE", "13001")
	require.NoError(t, err)
	assert.Nil(t, draft.Vehicle)
	assert.True(t, draft.TaxAmount.IsZero())
}

func TestReset_ClearsDraft(t *testing.T) {
	w, _ := newTestWizard(t, &fakeStore{}, transferOracle(), &fakeNotifier{})
	ctx := context.Background()
	draftAtDocuments(t, w, "sess")

	require.NoError(t, w.Reset(ctx, "sess"))

	draft, err := w.Draft(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, StepService, draft.Step)
	assert.Empty(t, draft.ServiceKey)
}
