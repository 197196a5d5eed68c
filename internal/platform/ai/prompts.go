package ai

import (
	"fmt"
	"strings"
)

// systemPrompt is the fixed instruction set shared by both providers. The
// Epic syntax rules here are load-bearing: the validator downstream checks
// exactly these token grammars.
const systemPrompt = `You are an experienced clinical documentation assistant. You draft structured clinical notes from encounter transcripts for direct entry into an EMR.

Rules you must always follow:
1. Document only what is supported by the transcript. Never invent findings, medications, or history.
2. Use standard clinical section headers (Chief Complaint, HPI, Medications, Mental Status Exam, Risk Assessment, Assessment and Plan, Follow Up) unless a template dictates otherwise.
3. Epic syntax preservation:
   - SmartPhrases look like @PHRASENAME@ - always uppercase letters and digits between the @ signs. Reproduce them exactly as given. Never change their casing.
   - DotPhrases look like .phrasename - always lowercase letters and digits after the dot. Reproduce them exactly as given.
   - SmartLists look like {Name:123}. Reproduce the braces, name, and numeric ID exactly.
   - The wildcard *** marks text the clinician will fill in. Leave it in place unless the transcript supplies the content.
4. For the Credible EMR, produce plain text with no Epic tokens at all.
5. Write in concise clinical prose. No markdown, no commentary about being an AI.`

// healthPrompt is the minimal round-trip used by Healthy.
const healthPrompt = `Reply with exactly: OK`

// userPromptTemplate interpolates the transcript and optional context into
// the generation request.
const userPromptTemplate = `Draft a clinical note for the following encounter.

Target EMR: %s
%s%s
Transcript:
---
%s
---

Return only the note text.`

// BuildPrompt renders the user prompt for a generation request. When the
// request carries an explicit Prompt it is used verbatim.
func BuildPrompt(req *GenerationRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}

	emr := req.EMRType
	if emr == "" {
		emr = "epic"
	}

	var template string
	if req.Template != nil {
		template = fmt.Sprintf("Use this note template, filling each section from the transcript and keeping every Epic token intact:\n---\n%s\n---\n\n", req.Template.Content)
	}

	var patient string
	if req.Patient != nil {
		var parts []string
		if req.Patient.Name != "" {
			parts = append(parts, "Patient: "+req.Patient.Name)
		}
		if req.Patient.Age > 0 {
			parts = append(parts, fmt.Sprintf("Age: %d", req.Patient.Age))
		}
		if req.Patient.Gender != "" {
			parts = append(parts, "Gender: "+req.Patient.Gender)
		}
		if req.Patient.EncounterType != "" {
			parts = append(parts, "Encounter type: "+req.Patient.EncounterType)
		}
		if req.Patient.RelevantHx != "" {
			parts = append(parts, "Relevant history: "+req.Patient.RelevantHx)
		}
		if len(parts) > 0 {
			patient = strings.Join(parts, "\n") + "\n\n"
		}
	}

	return fmt.Sprintf(userPromptTemplate, emr, template, patient, req.Transcript)
}
