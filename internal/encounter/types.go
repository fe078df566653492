// Package encounter reads locally recorded clinical encounters. The
// bridging pipeline consumes these aggregates read-only; the registration
// and examination screens own the underlying tables.
package encounter

import "time"

// Visit is one clinical encounter as recorded at the clinic. The visit id
// is the business key (date/sequence composite, e.g. "2024/05/01/000007").
// Sub-records are nil or empty when the corresponding examination was not
// recorded.
type Visit struct {
	VisitID          string
	MedRecordNo      string
	NIK              string
	PractitionerCode string
	LocationCode     string
	RegisteredAt     time.Time

	Vitals        *Vitals
	Audiology     *AudiologyExam
	Diagnoses     []Diagnosis
	Procedures    []ProcedureRecord
	Prescriptions []PrescriptionLine
}

// Vitals as captured at the desk. Blood pressure keeps the recorded
// "systolic/diastolic" string; the payload builder splits it.
type Vitals struct {
	BloodPressure string // "120/80"
	Temperature   string // "36.5", degrees Celsius
}

// AudiologyExam holds the audiometry findings per ear. Thresholds are dB HL;
// loss types key into the fixed hearing-loss code table.
type AudiologyExam struct {
	RightEarThresholdDB *float64
	LeftEarThresholdDB  *float64
	RightEarLossType    string
	LeftEarLossType     string
	AnatomyNotes        string
}

// Diagnosis is one ICD-10 coded diagnosis. Rank 1 is the primary diagnosis.
type Diagnosis struct {
	Code string
	Name string
	Rank int
}

// ProcedureRecord is one performed procedure, ICD-9-CM coded.
type ProcedureRecord struct {
	Code        string
	Name        string
	PerformedAt time.Time
}

// PrescriptionLine is one item on a prescription.
type PrescriptionLine struct {
	PrescriptionID string
	ItemCode       string
	ItemName       string
	Quantity       float64
	Unit           string
	Instructions   string
}

// Prescription groups the lines handed to the pharmacy, with the visit they
// belong to.
type Prescription struct {
	PrescriptionID string
	VisitID        string
	DispensedAt    *time.Time
	Lines          []PrescriptionLine
}
