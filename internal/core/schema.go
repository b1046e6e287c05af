package core

// Column names of the persisted CSV contract.
const (
	ColPatientID      = "patient_id"
	ColTrialSite      = "trial_site"
	ColEnrollmentDate = "enrollment_date"
	ColAge            = "age"
	ColAdverseEvent   = "adverse_event"
	ColCompletedTrial = "completed_trial"
)

// PatientSchema lists the required columns in file order.
var PatientSchema = []FieldSpec{
	{Name: ColPatientID, Type: FieldText, Required: true},
	{Name: ColTrialSite, Type: FieldText, Required: true},
	{Name: ColEnrollmentDate, Type: FieldDate, Required: true},
	{Name: ColAge, Type: FieldInteger, Required: true},
	{Name: ColAdverseEvent, Type: FieldBool, Required: true},
	{Name: ColCompletedTrial, Type: FieldBool, Required: true},
}

// SchemaColumns returns the column names of PatientSchema.
func SchemaColumns() []string {
	cols := make([]string, len(PatientSchema))
	for i, spec := range PatientSchema {
		cols[i] = spec.Name
	}
	return cols
}
