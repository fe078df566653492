package encounter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrVisitNotFound is returned when no registration row exists for a visit id.
var ErrVisitNotFound = errors.New("encounter: visit not found")

// ErrPrescriptionNotFound is returned when no prescription row exists.
var ErrPrescriptionNotFound = errors.New("encounter: prescription not found")

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository loads visit aggregates from the clinic database.
type Repository struct {
	db querier
}

// NewRepository creates a visit repository over a pgx pool.
func NewRepository(db querier) *Repository {
	if db == nil {
		panic("encounter: db required")
	}
	return &Repository{db: db}
}

// GetVisit loads one visit with all recorded sub-records.
func (r *Repository) GetVisit(ctx context.Context, visitID string) (*Visit, error) {
	visit := &Visit{VisitID: visitID}

	query := `
		SELECT med_record_no, nik, practitioner_code, location_code, registered_at
		FROM visits
		WHERE visit_id = $1
	`
	err := r.db.QueryRow(ctx, query, visitID).Scan(
		&visit.MedRecordNo, &visit.NIK, &visit.PractitionerCode, &visit.LocationCode, &visit.RegisteredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("encounter: load visit %s: %w", visitID, err)
	}

	if visit.Vitals, err = r.loadVitals(ctx, visitID); err != nil {
		return nil, err
	}
	if visit.Audiology, err = r.loadAudiology(ctx, visitID); err != nil {
		return nil, err
	}
	if visit.Diagnoses, err = r.loadDiagnoses(ctx, visitID); err != nil {
		return nil, err
	}
	if visit.Procedures, err = r.loadProcedures(ctx, visitID); err != nil {
		return nil, err
	}
	if visit.Prescriptions, err = r.loadPrescriptionLines(ctx, visitID); err != nil {
		return nil, err
	}
	return visit, nil
}

// GetPrescription loads one prescription with its lines, for the pharmacy
// dispense flow.
func (r *Repository) GetPrescription(ctx context.Context, prescriptionID string) (*Prescription, error) {
	p := &Prescription{PrescriptionID: prescriptionID}

	query := `
		SELECT visit_id, dispensed_at
		FROM prescriptions
		WHERE prescription_id = $1
	`
	err := r.db.QueryRow(ctx, query, prescriptionID).Scan(&p.VisitID, &p.DispensedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("encounter: load prescription %s: %w", prescriptionID, err)
	}

	linesQuery := `
		SELECT prescription_id, item_code, item_name, quantity, unit, instructions
		FROM prescription_items
		WHERE prescription_id = $1
		ORDER BY item_code
	`
	rows, err := r.db.Query(ctx, linesQuery, prescriptionID)
	if err != nil {
		return nil, fmt.Errorf("encounter: load prescription items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line PrescriptionLine
		if err := rows.Scan(&line.PrescriptionID, &line.ItemCode, &line.ItemName, &line.Quantity, &line.Unit, &line.Instructions); err != nil {
			return nil, fmt.Errorf("encounter: scan prescription item: %w", err)
		}
		p.Lines = append(p.Lines, line)
	}
	return p, rows.Err()
}

func (r *Repository) loadVitals(ctx context.Context, visitID string) (*Vitals, error) {
	query := `
		SELECT blood_pressure, body_temperature
		FROM vitals_exams
		WHERE visit_id = $1
	`
	var v Vitals
	err := r.db.QueryRow(ctx, query, visitID).Scan(&v.BloodPressure, &v.Temperature)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("encounter: load vitals: %w", err)
	}
	return &v, nil
}

func (r *Repository) loadAudiology(ctx context.Context, visitID string) (*AudiologyExam, error) {
	query := `
		SELECT right_ear_db, left_ear_db, right_ear_loss_type, left_ear_loss_type, anatomy_notes
		FROM audiology_exams
		WHERE visit_id = $1
	`
	var a AudiologyExam
	err := r.db.QueryRow(ctx, query, visitID).Scan(
		&a.RightEarThresholdDB, &a.LeftEarThresholdDB, &a.RightEarLossType, &a.LeftEarLossType, &a.AnatomyNotes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("encounter: load audiology: %w", err)
	}
	return &a, nil
}

func (r *Repository) loadDiagnoses(ctx context.Context, visitID string) ([]Diagnosis, error) {
	query := `
		SELECT icd10_code, name, rank
		FROM visit_diagnoses
		WHERE visit_id = $1
		ORDER BY rank
	`
	rows, err := r.db.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("encounter: load diagnoses: %w", err)
	}
	defer rows.Close()

	var diagnoses []Diagnosis
	for rows.Next() {
		var d Diagnosis
		if err := rows.Scan(&d.Code, &d.Name, &d.Rank); err != nil {
			return nil, fmt.Errorf("encounter: scan diagnosis: %w", err)
		}
		diagnoses = append(diagnoses, d)
	}
	return diagnoses, rows.Err()
}

func (r *Repository) loadProcedures(ctx context.Context, visitID string) ([]ProcedureRecord, error) {
	query := `
		SELECT icd9_code, name, performed_at
		FROM visit_procedures
		WHERE visit_id = $1
		ORDER BY performed_at
	`
	rows, err := r.db.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("encounter: load procedures: %w", err)
	}
	defer rows.Close()

	var procedures []ProcedureRecord
	for rows.Next() {
		var p ProcedureRecord
		if err := rows.Scan(&p.Code, &p.Name, &p.PerformedAt); err != nil {
			return nil, fmt.Errorf("encounter: scan procedure: %w", err)
		}
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

func (r *Repository) loadPrescriptionLines(ctx context.Context, visitID string) ([]PrescriptionLine, error) {
	query := `
		SELECT i.prescription_id, i.item_code, i.item_name, i.quantity, i.unit, i.instructions
		FROM prescription_items i
		JOIN prescriptions p ON p.prescription_id = i.prescription_id
		WHERE p.visit_id = $1
		ORDER BY i.prescription_id, i.item_code
	`
	rows, err := r.db.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("encounter: load prescription lines: %w", err)
	}
	defer rows.Close()

	var lines []PrescriptionLine
	for rows.Next() {
		var line PrescriptionLine
		if err := rows.Scan(&line.PrescriptionID, &line.ItemCode, &line.ItemName, &line.Quantity, &line.Unit, &line.Instructions); err != nil {
			return nil, fmt.Errorf("encounter: scan prescription line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
