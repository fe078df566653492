package bridging

// ClinicalImpressionResource builds the fixed end-of-visit impression.
func ClinicalImpressionResource(rc RunContext) FHIRClinicalImpression {
	return FHIRClinicalImpression{
		ResourceType:      "ClinicalImpression",
		Status:            "completed",
		Subject:           rc.patientRef(),
		Encounter:         rc.encounterRef(),
		EffectiveDateTime: fhirTime(rc.Now),
		Assessor:          &FHIRReference{Reference: "Practitioner/" + rc.PractitionerID},
		Summary:           "Prognosis good",
		Prognosis: []FHIRCodeableConcept{
			codeable(systemSNOMED, "170968001", "Prognosis good"),
		},
	}
}

// CarePlanResource builds the standing follow-up plan recorded with every
// completed visit.
func CarePlanResource(rc RunContext) FHIRCarePlan {
	return FHIRCarePlan{
		ResourceType: "CarePlan",
		Status:       "completed",
		Intent:       "plan",
		Title:        "Outpatient follow-up",
		Description:  "Continue prescribed medication; return if complaints persist or worsen.",
		Subject:      rc.patientRef(),
		Encounter:    rc.encounterRef(),
		Created:      fhirTime(rc.Now),
		Author:       &FHIRReference{Reference: "Practitioner/" + rc.PractitionerID},
	}
}
