package records

// RecordType clasifica la entrada clínica canónica.
type RecordType string

const (
	RecordTypeConsultation RecordType = "CONSULTATION"
	RecordTypeVaccine      RecordType = "VACCINE"
	RecordTypeMedication   RecordType = "MEDICATION"
	RecordTypeDeworming    RecordType = "DEWORMING"
	RecordTypeSurgery      RecordType = "SURGERY"
	RecordTypeNote         RecordType = "NOTE"
)

type ActorType string

const (
	ActorTypeGuardian     ActorType = "GUARDIAN"
	ActorTypeProfessional ActorType = "PROFESSIONAL"
	ActorTypeSystem       ActorType = "SYSTEM"
)

// Source indica por qué vía entró el registro.
type Source string

const (
	SourceManual    Source = "manual"
	SourceApproval  Source = "access_approval"
	SourceEmergency Source = "emergency"
	SourceCoauthor  Source = "pending_record_approved"
)
