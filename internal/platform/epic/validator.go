// Package epic validates Epic EMR inline syntax in generated note text.
// It recognizes SmartPhrases (@NAME@), DotPhrases (.name), SmartLists
// ({Name:ID}) and wildcard placeholders (***), flags case-mangled variants,
// and scores how well a generation preserved the tokens it was given.
package epic

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Token kinds recognized by the validator.
const (
	TokenSmartPhrase = "smart_phrase"
	TokenDotPhrase   = "dot_phrase"
	TokenSmartList   = "smart_list"
	TokenWildcard    = "wildcard"
)

var (
	// Well-formed tokens. SmartPhrases are strictly uppercase alphanumeric,
	// DotPhrases strictly lowercase alphanumeric.
	smartPhraseRe = regexp.MustCompile(`@[A-Z0-9]+@`)
	dotPhraseRe   = regexp.MustCompile(`\.[a-z0-9]+\b`)
	smartListRe   = regexp.MustCompile(`\{[A-Za-z][A-Za-z0-9 ]*:\d+\}`)
	wildcardRe    = regexp.MustCompile(`\*\*\*`)

	// Candidate tokens: anything that looks like an attempted phrase,
	// regardless of casing. Malformed = candidate minus well-formed.
	smartPhraseCandidateRe = regexp.MustCompile(`@[A-Za-z0-9]+@`)
	dotPhraseCandidateRe   = regexp.MustCompile(`(?:^|[\s(])(\.[A-Za-z0-9]+)\b`)
	smartListCandidateRe   = regexp.MustCompile(`\{[^{}\n]*:[^{}\n]*\}`)
)

// TokenResult reports the tokens of one kind found in a text.
type TokenResult struct {
	Found     []string `json:"found"`
	Missing   []string `json:"missing"`
	Malformed []string `json:"malformed"`
}

// WildcardResult reports wildcard placeholders.
type WildcardResult struct {
	Found    []string `json:"found"`
	Replaced bool     `json:"replaced"`
}

// Validation is the result of scanning a note for Epic syntax. It is a pure
// function of the input text: identical input yields identical output.
type Validation struct {
	IsValid           bool           `json:"is_valid"`
	SmartPhrases      TokenResult    `json:"smart_phrases"`
	DotPhrases        TokenResult    `json:"dot_phrases"`
	SmartLists        TokenResult    `json:"smart_lists"`
	Wildcards         WildcardResult `json:"wildcards"`
	PreservationScore float64        `json:"preservation_score"`
	Suggestions       []string       `json:"suggestions,omitempty"`
}

// Validate scans text for Epic syntax tokens and flags malformed variants.
// A malformed token is one that matches the general shape of a SmartPhrase,
// DotPhrase, or SmartList but violates its exact casing or character rules.
func Validate(text string) Validation {
	v := Validation{IsValid: true}

	v.SmartPhrases.Found = dedupe(smartPhraseRe.FindAllString(text, -1))
	for _, cand := range dedupe(smartPhraseCandidateRe.FindAllString(text, -1)) {
		if !smartPhraseRe.MatchString(cand) {
			v.SmartPhrases.Malformed = append(v.SmartPhrases.Malformed, cand)
			v.Suggestions = append(v.Suggestions,
				fmt.Sprintf("replace %s with %s", cand, strings.ToUpper(cand)))
		}
	}

	v.DotPhrases.Found = dedupe(matchGroup(dotPhraseCandidateRe, text, func(s string) bool {
		return dotPhraseRe.MatchString(s) && s == strings.ToLower(s)
	}))
	for _, cand := range dedupe(matchGroup(dotPhraseCandidateRe, text, func(s string) bool {
		return s != strings.ToLower(s)
	})) {
		v.DotPhrases.Malformed = append(v.DotPhrases.Malformed, cand)
		v.Suggestions = append(v.Suggestions,
			fmt.Sprintf("replace %s with %s", cand, strings.ToLower(cand)))
	}

	v.SmartLists.Found = dedupe(smartListRe.FindAllString(text, -1))
	for _, cand := range dedupe(smartListCandidateRe.FindAllString(text, -1)) {
		if !smartListRe.MatchString(cand) {
			v.SmartLists.Malformed = append(v.SmartLists.Malformed, cand)
		}
	}

	v.Wildcards.Found = wildcardRe.FindAllString(text, -1)
	if v.Wildcards.Found == nil {
		v.Wildcards.Found = []string{}
		v.Wildcards.Replaced = true
	}

	malformed := len(v.SmartPhrases.Malformed) + len(v.DotPhrases.Malformed) + len(v.SmartLists.Malformed)
	expected := malformed +
		len(v.SmartPhrases.Found) + len(v.DotPhrases.Found) + len(v.SmartLists.Found)

	if expected == 0 {
		v.PreservationScore = 1.0
	} else {
		v.PreservationScore = float64(expected-malformed) / float64(expected)
	}
	v.IsValid = malformed == 0

	return v
}

// ValidateAgainst checks that every token present in the source text
// survived into the generated text, in addition to running Validate on the
// generated text. Tokens present in source but absent from generated are
// reported as Missing.
func ValidateAgainst(source, generated string) Validation {
	v := Validate(generated)

	src := Validate(source)
	v.SmartPhrases.Missing = missingFrom(src.SmartPhrases.Found, v.SmartPhrases.Found)
	v.DotPhrases.Missing = missingFrom(src.DotPhrases.Found, v.DotPhrases.Found)
	v.SmartLists.Missing = missingFrom(src.SmartLists.Found, v.SmartLists.Found)

	missing := len(v.SmartPhrases.Missing) + len(v.DotPhrases.Missing) + len(v.SmartLists.Missing)
	malformed := len(v.SmartPhrases.Malformed) + len(v.DotPhrases.Malformed) + len(v.SmartLists.Malformed)
	expected := len(src.SmartPhrases.Found) + len(src.DotPhrases.Found) + len(src.SmartLists.Found)

	if expected > 0 {
		lost := missing + malformed
		if lost > expected {
			lost = expected
		}
		v.PreservationScore = float64(expected-lost) / float64(expected)
	}
	if missing > 0 {
		v.IsValid = false
	}
	return v
}

// HasEpicSyntax reports whether text contains any recognizable Epic token,
// well-formed or otherwise.
func HasEpicSyntax(text string) bool {
	return smartPhraseCandidateRe.MatchString(text) ||
		dotPhraseCandidateRe.MatchString(text) ||
		smartListCandidateRe.MatchString(text) ||
		wildcardRe.MatchString(text)
}

// ExtractTokens returns the well-formed SmartPhrases and DotPhrases in text.
// Used by the template service to record which phrases a template references.
func ExtractTokens(text string) (smartPhrases, dotPhrases []string) {
	return dedupe(smartPhraseRe.FindAllString(text, -1)),
		dedupe(matchGroup(dotPhraseCandidateRe, text, func(s string) bool {
			return s == strings.ToLower(s)
		}))
}

func matchGroup(re *regexp.Regexp, text string, keep func(string) bool) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(m) > 1 && keep(m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}

func missingFrom(want, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	var out []string
	for _, w := range want {
		if !set[w] {
			out = append(out, w)
		}
	}
	return out
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
