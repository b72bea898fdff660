// internal/registration/draft.go
package registration

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"garage-backoffice/internal/common/database"
	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/lookup"
)

// Draft is the wizard's in-progress state for one session. It mirrors the
// shape of a Record but lives in Redis under the wizard namespace until the
// user submits, so a page reload resumes mid-wizard.
type Draft struct {
	Step         int                 `json:"currentStep"`
	ServiceKey   string              `json:"serviceKey"`
	PostalCode   string              `json:"postalCode"`
	Plate        string              `json:"plateNumber"`
	Vehicle      *lookup.VehicleInfo `json:"vehicleInfo,omitempty"`
	TaxAmount    decimal.Decimal     `json:"taxAmount"`
	Documents    map[string][]string `json:"documents"`
	ContactEmail string              `json:"contactEmail,omitempty"`
	ContactPhone string              `json:"contactPhone,omitempty"`
	// LookupSeq increments whenever the draft's lookup inputs change, so a
	// late-arriving oracle response for an older draft can be discarded.
	LookupSeq int64 `json:"lookupSeq"`
}

// NewDraft returns an empty draft at step 0.
func NewDraft() *Draft {
	return &Draft{
		Documents: map[string][]string{},
		TaxAmount: decimal.Zero,
	}
}

// DraftStore keeps wizard drafts in Redis, one per session, with a TTL so
// abandoned sessions age out.
type DraftStore struct {
	redis *database.RedisClient
	ttl   time.Duration
}

func NewDraftStore(redisClient *database.RedisClient, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DraftStore{redis: redisClient, ttl: ttl}
}

func draftKey(sessionID string) string {
	return "wizard:draft:" + sessionID
}

// Load returns the session's draft, or a fresh empty draft when none exists.
func (s *DraftStore) Load(ctx context.Context, sessionID string) (*Draft, error) {
	var draft Draft
	err := s.redis.GetJSON(ctx, draftKey(sessionID), &draft)
	if err == redis.Nil {
		return NewDraft(), nil
	}
	if err != nil {
		return nil, errors.NewStorageError("draft_load", err)
	}
	if draft.Documents == nil {
		draft.Documents = map[string][]string{}
	}
	return &draft, nil
}

// Save persists the draft and refreshes its TTL.
func (s *DraftStore) Save(ctx context.Context, sessionID string, draft *Draft) error {
	if err := s.redis.SetJSON(ctx, draftKey(sessionID), draft, s.ttl); err != nil {
		return errors.NewStorageError("draft_save", err)
	}
	return nil
}

// Clear removes the session's draft so the next visit starts fresh.
func (s *DraftStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, draftKey(sessionID)); err != nil {
		return errors.NewStorageError("draft_clear", err)
	}
	return nil
}
