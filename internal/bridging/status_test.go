package bridging

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func testLinkStore(t *testing.T) (*LinkStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewLinkStore(mock), mock
}

func TestLinkGetAbsent(t *testing.T) {
	store, mock := testLinkStore(t)

	mock.ExpectQuery("SELECT visit_id").WithArgs("2024/05/01/000007").
		WillReturnRows(pgxmock.NewRows([]string{"visit_id", "encounter_id", "episode_id", "status", "last_response", "last_sent_at"}))

	link, err := store.Get(context.Background(), "2024/05/01/000007")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if link != nil {
		t.Errorf("expected nil link for an unbridged visit, got %+v", link)
	}
}

func TestLinkGetPresent(t *testing.T) {
	store, mock := testLinkStore(t)
	sentAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT visit_id").WithArgs("2024/05/01/000007").
		WillReturnRows(pgxmock.NewRows([]string{"visit_id", "encounter_id", "episode_id", "status", "last_response", "last_sent_at"}).
			AddRow("2024/05/01/000007", "enc-1", "ep-1", StatusSent, []byte(`{"id":"ep-1"}`), &sentAt))

	link, err := store.Get(context.Background(), "2024/05/01/000007")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if link.Status != StatusSent {
		t.Errorf("unexpected status %q", link.Status)
	}
	if link.EpisodeID != "ep-1" {
		t.Errorf("unexpected episode id %q", link.EpisodeID)
	}
	if link.LastSentAt == nil || !link.LastSentAt.Equal(sentAt) {
		t.Errorf("unexpected last_sent_at %v", link.LastSentAt)
	}
}

func TestLinkUpsert(t *testing.T) {
	store, mock := testLinkStore(t)
	sentAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO satusehat_encounter_link").
		WithArgs("2024/05/01/000007", "enc-1", "ep-1", StatusSent, []byte(`{"id":"ep-1"}`), &sentAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.Upsert(context.Background(), &EncounterLink{
		VisitID:      "2024/05/01/000007",
		EncounterID:  "enc-1",
		EpisodeID:    "ep-1",
		Status:       StatusSent,
		LastResponse: []byte(`{"id":"ep-1"}`),
		LastSentAt:   &sentAt,
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
