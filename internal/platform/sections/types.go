// Package sections segments free-text clinical notes into typed sections.
// It carries the canonical section taxonomy and the header-alias table that
// maps the header vocabularies of different note dialects (SOAP,
// Epic-structured, narrative psychiatric) onto one set of section types.
package sections

import "time"

// SectionType is the canonical clinical section taxonomy. Downstream
// transfer-of-care presets key off these values, so the set and the alias
// table below are part of the package contract.
type SectionType string

const (
	ChiefComplaint         SectionType = "CHIEF_COMPLAINT"
	HPI                    SectionType = "HPI"
	PastPsychiatricHistory SectionType = "PAST_PSYCHIATRIC_HISTORY"
	Medical                SectionType = "MEDICAL"
	MedicationsPlan        SectionType = "MEDICATIONS_PLAN"
	Allergies              SectionType = "ALLERGIES"
	SocialHistory          SectionType = "SOCIAL_HISTORY"
	FamilyHistory          SectionType = "FAMILY_HISTORY"
	ReviewOfSystems        SectionType = "REVIEW_OF_SYSTEMS"
	Vitals                 SectionType = "VITALS"
	Labs                   SectionType = "LABS"
	PsychExam              SectionType = "PSYCH_EXAM"
	PhysicalExam           SectionType = "PHYSICAL_EXAM"
	Questionnaires         SectionType = "QUESTIONNAIRES_SURVEYS"
	RiskAssessment         SectionType = "RISK_ASSESSMENT"
	AssessmentAndPlan      SectionType = "ASSESSMENT_AND_PLAN"
	SafetyPlan             SectionType = "SAFETY_PLAN"
	Prognosis              SectionType = "PROGNOSIS"
	FollowUp               SectionType = "FOLLOW_UP"

	// SOAP dialect types. Kept as first-class types rather than folded into
	// the psychiatric vocabulary so SOAP notes round-trip with their own
	// headers intact.
	Subjective SectionType = "SUBJECTIVE"
	Objective  SectionType = "OBJECTIVE"
	Assessment SectionType = "ASSESSMENT"
	Plan       SectionType = "PLAN"

	Other SectionType = "OTHER"
)

// NoteFormat classifies the overall structure of a note.
type NoteFormat string

const (
	FormatSOAP           NoteFormat = "soap"
	FormatEpicStructured NoteFormat = "epic-structured"
	FormatNarrative      NoteFormat = "narrative"
)

// EMRType identifies the target EMR dialect of a note.
type EMRType string

const (
	EMREpic     EMRType = "epic"
	EMRCredible EMRType = "credible"
)

// Metadata describes a detected section beyond its text span.
type Metadata struct {
	HasEpicSyntax bool     `json:"has_epic_syntax"`
	WordCount     int      `json:"word_count"`
	IsEmpty       bool     `json:"is_empty"`
	ClinicalTerms []string `json:"clinical_terms,omitempty"`
}

// DetectedSection is one typed span of a parsed note. Index ranges are byte
// offsets into the source text, half-open [StartIndex, EndIndex).
type DetectedSection struct {
	Type       SectionType `json:"type"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	StartIndex int         `json:"start_index"`
	EndIndex   int         `json:"end_index"`
	Confidence float64     `json:"confidence"`
	Metadata   Metadata    `json:"metadata"`
}

// ParseMetadata summarizes a parse run.
type ParseMetadata struct {
	TotalSections  int           `json:"total_sections"`
	Confidence     float64       `json:"confidence"`
	ProcessingTime time.Duration `json:"processing_time"`
	Errors         []string      `json:"errors,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
}

// ParsedNote is the aggregate result of section detection. Sections are in
// document order with non-overlapping index ranges covering the original
// content (not necessarily contiguously).
type ParsedNote struct {
	OriginalContent string            `json:"original_content"`
	DetectedFormat  NoteFormat        `json:"detected_format"`
	EMRType         EMRType           `json:"emr_type"`
	Sections        []DetectedSection `json:"sections"`
	ParseMetadata   ParseMetadata     `json:"parse_metadata"`
}

// Section returns the first section of the given type, or nil.
func (p *ParsedNote) Section(t SectionType) *DetectedSection {
	for i := range p.Sections {
		if p.Sections[i].Type == t {
			return &p.Sections[i]
		}
	}
	return nil
}

// headerAlias maps a header keyword (lowercased) to its canonical type and a
// match strength used in confidence scoring. Exact dialect headers score
// 1.0; looser historical spellings score lower.
type headerAlias struct {
	keyword  string
	sectType SectionType
	strength float64
}

// headerAliases is the versioned alias table reconciling the header
// vocabularies found across note dialects. Longer keywords are matched
// before shorter ones so "assessment and plan" wins over "assessment".
var headerAliases = []headerAlias{
	{"history of present illness", HPI, 1.0},
	{"interval history", HPI, 0.8},
	{"hpi", HPI, 1.0},
	{"chief complaint", ChiefComplaint, 1.0},
	{"reason for visit", ChiefComplaint, 0.8},
	{"cc", ChiefComplaint, 0.6},
	{"past psychiatric history", PastPsychiatricHistory, 1.0},
	{"psychiatric history", PastPsychiatricHistory, 0.8},
	{"past medical history", Medical, 1.0},
	{"medical history", Medical, 0.8},
	{"pmh", Medical, 0.7},
	{"current medications", MedicationsPlan, 1.0},
	{"medication plan", MedicationsPlan, 1.0},
	{"medications", MedicationsPlan, 0.9},
	{"meds", MedicationsPlan, 0.6},
	{"allergies", Allergies, 1.0},
	{"drug allergies", Allergies, 0.9},
	{"nkda", Allergies, 0.5},
	{"social history", SocialHistory, 1.0},
	{"family history", FamilyHistory, 1.0},
	{"review of systems", ReviewOfSystems, 1.0},
	{"ros", ReviewOfSystems, 0.7},
	{"vital signs", Vitals, 1.0},
	{"vitals", Vitals, 0.9},
	{"laboratory results", Labs, 1.0},
	{"lab results", Labs, 0.9},
	{"labs", Labs, 0.8},
	{"mental status exam", PsychExam, 1.0},
	{"mental status examination", PsychExam, 1.0},
	{"psychiatric exam", PsychExam, 0.9},
	{"mse", PsychExam, 0.7},
	{"physical exam", PhysicalExam, 1.0},
	{"physical examination", PhysicalExam, 1.0},
	{"exam", PhysicalExam, 0.5},
	{"questionnaires", Questionnaires, 1.0},
	{"surveys", Questionnaires, 0.8},
	{"phq-9", Questionnaires, 0.7},
	{"gad-7", Questionnaires, 0.7},
	{"risk assessment", RiskAssessment, 1.0},
	{"suicide risk assessment", RiskAssessment, 1.0},
	{"safety assessment", RiskAssessment, 0.8},
	{"assessment and plan", AssessmentAndPlan, 1.0},
	{"assessment & plan", AssessmentAndPlan, 1.0},
	{"impression and plan", AssessmentAndPlan, 0.9},
	{"a/p", AssessmentAndPlan, 0.7},
	{"a&p", AssessmentAndPlan, 0.7},
	{"safety plan", SafetyPlan, 1.0},
	{"prognosis", Prognosis, 1.0},
	{"follow up", FollowUp, 1.0},
	{"follow-up", FollowUp, 1.0},
	{"followup", FollowUp, 0.9},
	{"return to clinic", FollowUp, 0.8},
	{"disposition", FollowUp, 0.7},
	{"subjective", Subjective, 1.0},
	{"objective", Objective, 1.0},
	{"assessment", Assessment, 1.0},
	{"impression", Assessment, 0.8},
	{"plan", Plan, 1.0},
}

// clinicalVocabulary lists terms expected in each section type's content.
// Hits raise parse confidence for that section.
var clinicalVocabulary = map[SectionType][]string{
	ChiefComplaint:         {"presents", "complains", "reports", "referred"},
	HPI:                    {"patient", "reports", "denies", "symptoms", "since", "onset", "endorses"},
	PastPsychiatricHistory: {"hospitalization", "diagnosis", "prior", "suicide attempt", "treatment"},
	Medical:                {"hypertension", "diabetes", "asthma", "surgery", "chronic"},
	MedicationsPlan:        {"mg", "daily", "bid", "tid", "prn", "tablet", "dose", "continue", "titrate"},
	Allergies:              {"nkda", "allergy", "reaction", "rash", "anaphylaxis"},
	SocialHistory:          {"tobacco", "alcohol", "employed", "lives", "denies", "substance"},
	FamilyHistory:          {"mother", "father", "sibling", "history of"},
	ReviewOfSystems:        {"denies", "negative", "positive", "reports"},
	Vitals:                 {"bp", "hr", "temp", "weight", "bmi", "pulse"},
	Labs:                   {"wbc", "hgb", "tsh", "a1c", "panel", "within normal"},
	PsychExam:              {"mood", "affect", "thought", "insight", "judgment", "oriented", "speech"},
	PhysicalExam:           {"normal", "unremarkable", "auscultation", "palpation", "tender"},
	Questionnaires:         {"score", "phq", "gad", "scale", "severity"},
	RiskAssessment:         {"ideation", "suicidal", "homicidal", "denies", "risk", "protective"},
	AssessmentAndPlan:      {"diagnosis", "continue", "increase", "start", "refer", "monitor", "stable"},
	SafetyPlan:             {"crisis", "contact", "coping", "emergency", "988"},
	Prognosis:              {"prognosis", "fair", "good", "guarded", "poor"},
	FollowUp:               {"weeks", "return", "schedule", "appointment", "rtc"},
	Subjective:             {"patient", "reports", "denies", "states"},
	Objective:              {"exam", "vitals", "alert", "oriented", "normal"},
	Assessment:             {"diagnosis", "stable", "improved", "worsening"},
	Plan:                   {"continue", "start", "increase", "follow", "refer"},
}

// soapTypes are the section types that mark a note as SOAP-format.
var soapTypes = map[SectionType]bool{
	Subjective: true,
	Objective:  true,
	Assessment: true,
	Plan:       true,
}
