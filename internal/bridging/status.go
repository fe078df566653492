package bridging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Bridging status of one visit. "in-progress" corresponds to a called
// encounter whose clinical record has not been sent yet.
const (
	StatusNotSent    = "not-sent"
	StatusInProgress = "in-progress"
	StatusSent       = "sent"
	StatusFailed     = "failed"
)

// EncounterLink is the durable per-visit bridging record: idempotency guard
// and audit trail in one row. The episode id is persisted as soon as the
// episode is created so an interrupted run can resume without creating a
// duplicate.
type EncounterLink struct {
	VisitID      string
	EncounterID  string // platform encounter id, empty until created
	EpisodeID    string // platform episode id, empty until created
	Status       string
	LastResponse json.RawMessage
	LastSentAt   *time.Time
}

type linkDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LinkStore persists EncounterLink rows. Written only by the orchestrator;
// read by the orchestrator's entry guards and the pharmacy dispense flow.
type LinkStore struct {
	db linkDB
}

// NewLinkStore creates the link store.
func NewLinkStore(db linkDB) *LinkStore {
	if db == nil {
		panic("bridging: db required")
	}
	return &LinkStore{db: db}
}

// Get loads the link row for a visit. Returns (nil, nil) when the visit has
// never been bridged.
func (s *LinkStore) Get(ctx context.Context, visitID string) (*EncounterLink, error) {
	query := `
		SELECT visit_id, encounter_id, episode_id, status, last_response, last_sent_at
		FROM satusehat_encounter_link
		WHERE visit_id = $1
	`
	var link EncounterLink
	var lastResponse []byte
	err := s.db.QueryRow(ctx, query, visitID).Scan(
		&link.VisitID, &link.EncounterID, &link.EpisodeID, &link.Status, &lastResponse, &link.LastSentAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bridging: load encounter link %s: %w", visitID, err)
	}
	link.LastResponse = lastResponse
	return &link, nil
}

// Upsert writes the link row, replacing the previous attempt's state.
func (s *LinkStore) Upsert(ctx context.Context, link *EncounterLink) error {
	query := `
		INSERT INTO satusehat_encounter_link (visit_id, encounter_id, episode_id, status, last_response, last_sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (visit_id) DO UPDATE SET
			encounter_id = EXCLUDED.encounter_id,
			episode_id = EXCLUDED.episode_id,
			status = EXCLUDED.status,
			last_response = EXCLUDED.last_response,
			last_sent_at = EXCLUDED.last_sent_at
	`
	if _, err := s.db.Exec(ctx, query,
		link.VisitID, link.EncounterID, link.EpisodeID, link.Status, []byte(link.LastResponse), link.LastSentAt,
	); err != nil {
		return fmt.Errorf("bridging: upsert encounter link %s: %w", link.VisitID, err)
	}
	return nil
}
