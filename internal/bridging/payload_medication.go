package bridging

import "github.com/adisantoso/klinika-platform/internal/encounter"

// prescriptionIdentifier is the business identifier linking a
// MedicationRequest to its later MedicationDispense. The request's platform
// id is not retained locally, so the dispense references this instead.
func prescriptionIdentifier(orgID string, line encounter.PrescriptionLine) FHIRIdentifier {
	return FHIRIdentifier{
		System: "http://sys-ids.kemkes.go.id/prescription/" + orgID,
		Value:  line.PrescriptionID + "/" + line.ItemCode,
		Use:    "official",
	}
}

func medicationConcept(line encounter.PrescriptionLine) FHIRCodeableConcept {
	return FHIRCodeableConcept{
		Coding: []FHIRCoding{{System: "http://sys-ids.kemkes.go.id/kfa", Code: line.ItemCode, Display: line.ItemName}},
		Text:   line.ItemName,
	}
}

// MedicationRequestResource builds one MedicationRequest per prescription
// line.
func MedicationRequestResource(rc RunContext, line encounter.PrescriptionLine) FHIRMedicationRequest {
	concept := medicationConcept(line)
	req := FHIRMedicationRequest{
		ResourceType:              "MedicationRequest",
		Identifier:                []FHIRIdentifier{prescriptionIdentifier(rc.OrgID, line)},
		Status:                    "active",
		Intent:                    "order",
		MedicationCodeableConcept: &concept,
		Subject:                   rc.patientRef(),
		Encounter:                 rc.encounterRef(),
		AuthoredOn:                fhirTime(rc.Now),
		Requester:                 &FHIRReference{Reference: "Practitioner/" + rc.PractitionerID},
		DispenseRequest: &FHIRDispenseRequest{
			Quantity: &FHIRQuantity{Value: line.Quantity, Unit: line.Unit},
		},
	}
	if line.Instructions != "" {
		req.DosageInstruction = []FHIRDosage{{Text: line.Instructions}}
	}
	return req
}

// MedicationDispenseResource builds one MedicationDispense per prescription
// line, emitted when the pharmacy physically hands the item over.
func MedicationDispenseResource(rc RunContext, line encounter.PrescriptionLine, handedOver string) FHIRMedicationDispense {
	concept := medicationConcept(line)
	identifier := prescriptionIdentifier(rc.OrgID, line)
	dispense := FHIRMedicationDispense{
		ResourceType:              "MedicationDispense",
		Status:                    "completed",
		MedicationCodeableConcept: &concept,
		Subject:                   rc.patientRef(),
		Context:                   rc.encounterRef(),
		AuthorizingPrescription:   []FHIRDispenseAuthorization{{Identifier: &identifier}},
		Quantity:                  &FHIRQuantity{Value: line.Quantity, Unit: line.Unit},
		WhenHandedOver:            handedOver,
	}
	if line.Instructions != "" {
		dispense.DosageInstruction = []FHIRDosage{{Text: line.Instructions}}
	}
	return dispense
}
