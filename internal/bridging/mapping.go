package bridging

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adisantoso/klinika-platform/pkg/logging"
)

type mappingDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// directorySearcher is the slice of the gateway the mapping store needs for
// the lazy patient lookup.
type directorySearcher interface {
	SearchPatientByNIK(ctx context.Context, nik string) (string, bool, error)
}

// MappingStore resolves local keys to platform ids. Practitioner and
// location rows are maintained out of band by an operator; patient rows may
// additionally be discovered through the platform directory and are then
// persisted so the search happens once per patient, ever.
type MappingStore struct {
	db        mappingDB
	directory directorySearcher
	logger    *logging.Logger
}

// NewMappingStore creates the mapping store.
func NewMappingStore(db mappingDB, directory directorySearcher, logger *logging.Logger) *MappingStore {
	if db == nil {
		panic("bridging: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MappingStore{db: db, directory: directory, logger: logger}
}

// PatientID resolves the platform patient id for a medical record number.
// On a local miss and a non-empty NIK it asks the platform directory exactly
// once, persisting a hit before returning it. A miss in both places is a
// MappingError.
func (s *MappingStore) PatientID(ctx context.Context, medRecordNo, nik string) (string, error) {
	query := `
		SELECT satusehat_id
		FROM satusehat_patient_map
		WHERE med_record_no = $1
	`
	var id string
	err := s.db.QueryRow(ctx, query, medRecordNo).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("bridging: patient mapping lookup: %w", err)
	}

	if nik == "" || s.directory == nil {
		return "", &MappingError{Kind: "patient", LocalKey: medRecordNo}
	}

	id, found, err := s.directory.SearchPatientByNIK(ctx, nik)
	if err != nil {
		return "", fmt.Errorf("bridging: patient directory search: %w", err)
	}
	if !found {
		return "", &MappingError{Kind: "patient", LocalKey: medRecordNo}
	}

	insert := `
		INSERT INTO satusehat_patient_map (med_record_no, satusehat_id)
		VALUES ($1, $2)
		ON CONFLICT (med_record_no) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, insert, medRecordNo, id); err != nil {
		return "", fmt.Errorf("bridging: persist patient mapping: %w", err)
	}

	s.logger.Info("patient mapping discovered via directory", "med_record_no", medRecordNo, "satusehat_id", id)
	return id, nil
}

// UpsertPatient records an operator-supplied patient mapping. Rows are
// append-only; a key that is already mapped keeps its first value.
func (s *MappingStore) UpsertPatient(ctx context.Context, medRecordNo, satusehatID string) error {
	query := `
		INSERT INTO satusehat_patient_map (med_record_no, satusehat_id)
		VALUES ($1, $2)
		ON CONFLICT (med_record_no) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, medRecordNo, satusehatID); err != nil {
		return fmt.Errorf("bridging: upsert patient mapping: %w", err)
	}
	return nil
}

// UpsertPractitioner records an operator-supplied practitioner mapping.
// Same append-only contract as UpsertPatient.
func (s *MappingStore) UpsertPractitioner(ctx context.Context, code, satusehatID string) error {
	query := `
		INSERT INTO satusehat_practitioner_map (practitioner_code, satusehat_id)
		VALUES ($1, $2)
		ON CONFLICT (practitioner_code) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, code, satusehatID); err != nil {
		return fmt.Errorf("bridging: upsert practitioner mapping: %w", err)
	}
	return nil
}

// UpsertLocation records an operator-supplied location mapping. Same
// append-only contract as UpsertPatient.
func (s *MappingStore) UpsertLocation(ctx context.Context, code, satusehatID string) error {
	query := `
		INSERT INTO satusehat_location_map (location_code, satusehat_id)
		VALUES ($1, $2)
		ON CONFLICT (location_code) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, code, satusehatID); err != nil {
		return fmt.Errorf("bridging: upsert location mapping: %w", err)
	}
	return nil
}

// PractitionerID resolves a local practitioner code. No auto-creation; a
// missing row is a configuration error for the operator.
func (s *MappingStore) PractitionerID(ctx context.Context, code string) (string, error) {
	query := `
		SELECT satusehat_id
		FROM satusehat_practitioner_map
		WHERE practitioner_code = $1
	`
	var id string
	err := s.db.QueryRow(ctx, query, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &MappingError{Kind: "practitioner", LocalKey: code}
	}
	if err != nil {
		return "", fmt.Errorf("bridging: practitioner mapping lookup: %w", err)
	}
	return id, nil
}

// LocationID resolves a local service location code. Same contract as
// PractitionerID.
func (s *MappingStore) LocationID(ctx context.Context, code string) (string, error) {
	query := `
		SELECT satusehat_id
		FROM satusehat_location_map
		WHERE location_code = $1
	`
	var id string
	err := s.db.QueryRow(ctx, query, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", &MappingError{Kind: "location", LocalKey: code}
	}
	if err != nil {
		return "", fmt.Errorf("bridging: location mapping lookup: %w", err)
	}
	return id, nil
}
