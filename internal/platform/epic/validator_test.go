package epic

import (
	"reflect"
	"testing"
)

func TestValidate_WellFormedTokens(t *testing.T) {
	text := "HPI: @HPI@ reviewed. Plan per .plan and {Disposition:42}. Follow up ***."
	v := Validate(text)

	if !v.IsValid {
		t.Errorf("expected valid, got malformed: %+v", v)
	}
	if len(v.SmartPhrases.Found) != 1 || v.SmartPhrases.Found[0] != "@HPI@" {
		t.Errorf("smart phrases = %v", v.SmartPhrases.Found)
	}
	if len(v.DotPhrases.Found) != 1 || v.DotPhrases.Found[0] != ".plan" {
		t.Errorf("dot phrases = %v", v.DotPhrases.Found)
	}
	if len(v.SmartLists.Found) != 1 || v.SmartLists.Found[0] != "{Disposition:42}" {
		t.Errorf("smart lists = %v", v.SmartLists.Found)
	}
	if len(v.Wildcards.Found) != 1 {
		t.Errorf("wildcards = %v", v.Wildcards.Found)
	}
	if v.Wildcards.Replaced {
		t.Error("wildcards present, replaced should be false")
	}
	if v.PreservationScore != 1.0 {
		t.Errorf("preservation score = %f, want 1.0", v.PreservationScore)
	}
}

func TestValidate_MalformedCasing(t *testing.T) {
	v := Validate("Patient note @assessment@ .HPI {Plan:1}")

	if v.IsValid {
		t.Error("expected invalid")
	}
	if len(v.SmartPhrases.Malformed) != 1 || v.SmartPhrases.Malformed[0] != "@assessment@" {
		t.Errorf("malformed smart phrases = %v", v.SmartPhrases.Malformed)
	}
	if len(v.DotPhrases.Malformed) != 1 || v.DotPhrases.Malformed[0] != ".HPI" {
		t.Errorf("malformed dot phrases = %v", v.DotPhrases.Malformed)
	}
	if len(v.SmartLists.Found) != 1 || v.SmartLists.Found[0] != "{Plan:1}" {
		t.Errorf("smart lists = %v", v.SmartLists.Found)
	}
	if len(v.SmartLists.Malformed) != 0 {
		t.Errorf("unexpected malformed smart lists: %v", v.SmartLists.Malformed)
	}
	if len(v.Suggestions) != 2 {
		t.Errorf("suggestions = %v", v.Suggestions)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	text := "CC: follow-up. @ASSESSMENT@ then .hpi and @broken@ with {List:9} ***"
	first := Validate(text)
	second := Validate(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("validation not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestValidate_NoTokens(t *testing.T) {
	v := Validate("Patient is a 34 year old presenting for follow up.")
	if !v.IsValid {
		t.Error("plain text should be valid")
	}
	if v.PreservationScore != 1.0 {
		t.Errorf("score = %f, want 1.0 when no tokens expected", v.PreservationScore)
	}
	if !v.Wildcards.Replaced {
		t.Error("no wildcards means replaced=true")
	}
}

func TestValidate_SentencePunctuationNotDotPhrase(t *testing.T) {
	v := Validate("Patient is stable. Continue current regimen. Recheck in 2 weeks.")
	if len(v.DotPhrases.Found) != 0 || len(v.DotPhrases.Malformed) != 0 {
		t.Errorf("sentence periods misread as dot phrases: %+v", v.DotPhrases)
	}
}

func TestValidateAgainst_MissingTokens(t *testing.T) {
	source := "Use @HPI@ and .plan plus {Severity:3}."
	generated := "Use @HPI@ only."
	v := ValidateAgainst(source, generated)

	if v.IsValid {
		t.Error("dropped tokens should invalidate")
	}
	if len(v.DotPhrases.Missing) != 1 || v.DotPhrases.Missing[0] != ".plan" {
		t.Errorf("missing dot phrases = %v", v.DotPhrases.Missing)
	}
	if len(v.SmartLists.Missing) != 1 {
		t.Errorf("missing smart lists = %v", v.SmartLists.Missing)
	}
	want := 1.0 / 3.0
	if v.PreservationScore < want-0.001 || v.PreservationScore > want+0.001 {
		t.Errorf("preservation score = %f, want %f", v.PreservationScore, want)
	}
}

func TestValidateAgainst_AllPreserved(t *testing.T) {
	text := "@ASSESSMENT@ with .followup"
	v := ValidateAgainst(text, text)
	if !v.IsValid || v.PreservationScore != 1.0 {
		t.Errorf("identical text should fully preserve: %+v", v)
	}
}

func TestExtractTokens(t *testing.T) {
	sp, dp := ExtractTokens("Header @NOTE@ body .exam tail @NOTE@")
	if len(sp) != 1 || sp[0] != "@NOTE@" {
		t.Errorf("smart phrases = %v", sp)
	}
	if len(dp) != 1 || dp[0] != ".exam" {
		t.Errorf("dot phrases = %v", dp)
	}
}

func TestHasEpicSyntax(t *testing.T) {
	if !HasEpicSyntax("note with @TOKEN@") {
		t.Error("expected detection")
	}
	if HasEpicSyntax("plain narrative text") {
		t.Error("unexpected detection")
	}
}
