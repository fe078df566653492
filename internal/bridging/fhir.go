package bridging

// FHIR R4 payload models for the SATUSEHAT resource endpoint, scoped to the
// fields the bridge actually sends. Datetimes travel as RFC3339 strings.

// FHIRCoding represents a specific code from a code system
type FHIRCoding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

// FHIRCodeableConcept represents a coded value with optional text
type FHIRCodeableConcept struct {
	Coding []FHIRCoding `json:"coding,omitempty"`
	Text   string       `json:"text,omitempty"`
}

// FHIRReference represents a reference to another FHIR resource
type FHIRReference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

// FHIRIdentifier is a business identifier (system + value)
type FHIRIdentifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

// FHIRPeriod is a start/end time range
type FHIRPeriod struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// FHIRQuantity is a measured amount
type FHIRQuantity struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	System string  `json:"system,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// FHIRStatusHistory is one entry in a status lifecycle history
type FHIRStatusHistory struct {
	Status string     `json:"status"`
	Period FHIRPeriod `json:"period"`
}

// FHIREpisodeOfCare represents an EpisodeOfCare resource
type FHIREpisodeOfCare struct {
	ResourceType         string              `json:"resourceType"`
	ID                   string              `json:"id,omitempty"`
	Identifier           []FHIRIdentifier    `json:"identifier,omitempty"`
	Status               string              `json:"status"` // waitlist, active, finished
	StatusHistory        []FHIRStatusHistory `json:"statusHistory,omitempty"`
	Patient              FHIRReference       `json:"patient"`
	ManagingOrganization *FHIRReference      `json:"managingOrganization,omitempty"`
	Period               *FHIRPeriod         `json:"period,omitempty"`
}

// FHIREncounterParticipant is a participant in an encounter
type FHIREncounterParticipant struct {
	Type       []FHIRCodeableConcept `json:"type,omitempty"`
	Individual *FHIRReference        `json:"individual,omitempty"`
}

// FHIREncounterLocation links an encounter to a service location
type FHIREncounterLocation struct {
	Location FHIRReference `json:"location"`
}

// FHIRHospitalization carries the discharge disposition block
type FHIRHospitalization struct {
	DischargeDisposition *FHIRCodeableConcept `json:"dischargeDisposition,omitempty"`
}

// FHIREncounter represents an Encounter resource
type FHIREncounter struct {
	ResourceType    string                     `json:"resourceType"`
	ID              string                     `json:"id,omitempty"`
	Identifier      []FHIRIdentifier           `json:"identifier,omitempty"`
	Status          string                     `json:"status"` // arrived, in-progress, finished
	StatusHistory   []FHIRStatusHistory        `json:"statusHistory,omitempty"`
	Class           FHIRCoding                 `json:"class"`
	Subject         FHIRReference              `json:"subject"`
	EpisodeOfCare   []FHIRReference            `json:"episodeOfCare,omitempty"`
	Participant     []FHIREncounterParticipant `json:"participant,omitempty"`
	Period          *FHIRPeriod                `json:"period,omitempty"`
	Location        []FHIREncounterLocation    `json:"location,omitempty"`
	Hospitalization *FHIRHospitalization       `json:"hospitalization,omitempty"`
	ServiceProvider *FHIRReference             `json:"serviceProvider,omitempty"`
}

// FHIRObservationComponent is one component of a multi-part observation
// (e.g. the systolic half of a blood pressure panel)
type FHIRObservationComponent struct {
	Code          FHIRCodeableConcept `json:"code"`
	ValueQuantity *FHIRQuantity       `json:"valueQuantity,omitempty"`
}

// FHIRObservation represents an Observation resource
type FHIRObservation struct {
	ResourceType         string                     `json:"resourceType"`
	ID                   string                     `json:"id,omitempty"`
	Status               string                     `json:"status"` // final
	Category             []FHIRCodeableConcept      `json:"category,omitempty"`
	Code                 FHIRCodeableConcept        `json:"code"`
	Subject              FHIRReference              `json:"subject"`
	Encounter            *FHIRReference             `json:"encounter,omitempty"`
	EffectiveDateTime    string                     `json:"effectiveDateTime,omitempty"`
	Performer            []FHIRReference            `json:"performer,omitempty"`
	BodySite             *FHIRCodeableConcept       `json:"bodySite,omitempty"`
	ValueQuantity        *FHIRQuantity              `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *FHIRCodeableConcept       `json:"valueCodeableConcept,omitempty"`
	ValueString          string                     `json:"valueString,omitempty"`
	Component            []FHIRObservationComponent `json:"component,omitempty"`
}

// FHIRCondition represents a Condition resource
type FHIRCondition struct {
	ResourceType   string               `json:"resourceType"`
	ID             string               `json:"id,omitempty"`
	ClinicalStatus *FHIRCodeableConcept `json:"clinicalStatus,omitempty"`
	Category       []FHIRCodeableConcept `json:"category,omitempty"`
	Code           *FHIRCodeableConcept `json:"code,omitempty"`
	Subject        FHIRReference        `json:"subject"`
	Encounter      *FHIRReference       `json:"encounter,omitempty"`
	RecordedDate   string               `json:"recordedDate,omitempty"`
}

// FHIRProcedure represents a Procedure resource
type FHIRProcedure struct {
	ResourceType    string               `json:"resourceType"`
	ID              string               `json:"id,omitempty"`
	Status          string               `json:"status"` // completed
	Code            *FHIRCodeableConcept `json:"code,omitempty"`
	Subject         FHIRReference        `json:"subject"`
	Encounter       *FHIRReference       `json:"encounter,omitempty"`
	PerformedPeriod *FHIRPeriod          `json:"performedPeriod,omitempty"`
	Performer       []FHIRProcedurePerformer `json:"performer,omitempty"`
}

// FHIRProcedurePerformer is who performed a procedure
type FHIRProcedurePerformer struct {
	Actor FHIRReference `json:"actor"`
}

// FHIRClinicalImpression represents a ClinicalImpression resource
type FHIRClinicalImpression struct {
	ResourceType string                `json:"resourceType"`
	ID           string                `json:"id,omitempty"`
	Status       string                `json:"status"` // completed
	Subject      FHIRReference         `json:"subject"`
	Encounter    *FHIRReference        `json:"encounter,omitempty"`
	EffectiveDateTime string           `json:"effectiveDateTime,omitempty"`
	Assessor     *FHIRReference        `json:"assessor,omitempty"`
	Summary      string                `json:"summary,omitempty"`
	Prognosis    []FHIRCodeableConcept `json:"prognosisCodeableConcept,omitempty"`
}

// FHIRCarePlan represents a CarePlan resource
type FHIRCarePlan struct {
	ResourceType string         `json:"resourceType"`
	ID           string         `json:"id,omitempty"`
	Status       string         `json:"status"` // completed
	Intent       string         `json:"intent"` // plan
	Title        string         `json:"title,omitempty"`
	Description  string         `json:"description,omitempty"`
	Subject      FHIRReference  `json:"subject"`
	Encounter    *FHIRReference `json:"encounter,omitempty"`
	Created      string         `json:"created,omitempty"`
	Author       *FHIRReference `json:"author,omitempty"`
}

// FHIRDosage is a dosage instruction line
type FHIRDosage struct {
	Text string `json:"text,omitempty"`
}

// FHIRDispenseRequest carries the requested dispense quantity
type FHIRDispenseRequest struct {
	Quantity *FHIRQuantity `json:"quantity,omitempty"`
}

// FHIRMedicationRequest represents a MedicationRequest resource
type FHIRMedicationRequest struct {
	ResourceType              string               `json:"resourceType"`
	ID                        string               `json:"id,omitempty"`
	Identifier                []FHIRIdentifier     `json:"identifier,omitempty"`
	Status                    string               `json:"status"` // active
	Intent                    string               `json:"intent"` // order
	MedicationCodeableConcept *FHIRCodeableConcept `json:"medicationCodeableConcept,omitempty"`
	Subject                   FHIRReference        `json:"subject"`
	Encounter                 *FHIRReference       `json:"encounter,omitempty"`
	AuthoredOn                string               `json:"authoredOn,omitempty"`
	Requester                 *FHIRReference       `json:"requester,omitempty"`
	DosageInstruction         []FHIRDosage         `json:"dosageInstruction,omitempty"`
	DispenseRequest           *FHIRDispenseRequest `json:"dispenseRequest,omitempty"`
}

// FHIRDispenseAuthorization references the prior MedicationRequest by its
// business identifier; the request's platform id is not retained locally
type FHIRDispenseAuthorization struct {
	Identifier *FHIRIdentifier `json:"identifier,omitempty"`
}

// FHIRMedicationDispense represents a MedicationDispense resource
type FHIRMedicationDispense struct {
	ResourceType              string                      `json:"resourceType"`
	ID                        string                      `json:"id,omitempty"`
	Status                    string                      `json:"status"` // completed
	MedicationCodeableConcept *FHIRCodeableConcept        `json:"medicationCodeableConcept,omitempty"`
	Subject                   FHIRReference               `json:"subject"`
	Context                   *FHIRReference              `json:"context,omitempty"`
	AuthorizingPrescription   []FHIRDispenseAuthorization `json:"authorizingPrescription,omitempty"`
	Quantity                  *FHIRQuantity               `json:"quantity,omitempty"`
	WhenHandedOver            string                      `json:"whenHandedOver,omitempty"`
	DosageInstruction         []FHIRDosage                `json:"dosageInstruction,omitempty"`
}
