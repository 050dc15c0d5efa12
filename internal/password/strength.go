// Package password scores passwords against a fixed set of composition rules.
package password

import (
	"math"
	"strings"
	"unicode/utf8"
)

// MinLength is the only hard requirement for a password to be accepted.
const MinLength = 6

// Specials is the character class counted by the "special" rule.
const Specials = `!@#$%^&*(),.?":{}|<>`

// Rule IDs, in evaluation order.
const (
	RuleLength    = "length"
	RuleUppercase = "uppercase"
	RuleLowercase = "lowercase"
	RuleNumber    = "number"
	RuleSpecial   = "special"
)

// Level buckets the numeric strength.
type Level string

const (
	LevelNone   Level = "none"
	LevelWeak   Level = "weak"
	LevelMedium Level = "medium"
	LevelStrong Level = "strong"
)

type RuleResult struct {
	ID     string `json:"id"`
	Passed bool   `json:"passed"`
}

// Result is the outcome of Evaluate.
type Result struct {
	Rules    []RuleResult `json:"rules"`
	Strength int          `json:"strength"` // 0-100
	Level    Level        `json:"level"`
	Valid    bool         `json:"valid"`
}

// MatchResult describes a password confirmation field.
type MatchResult struct {
	Matching   bool `json:"matching"`
	ShowStatus bool `json:"show_status"`
}

type rule struct {
	id    string
	check func(string) bool
}

var rules = []rule{
	{RuleLength, func(s string) bool { return utf8.RuneCountInString(s) >= MinLength }},
	{RuleUppercase, containsRange('A', 'Z')},
	{RuleLowercase, containsRange('a', 'z')},
	{RuleNumber, containsRange('0', '9')},
	{RuleSpecial, func(s string) bool { return strings.ContainsAny(s, Specials) }},
}

// Evaluate scores pw. Strength is the share of passed rules rounded to a
// whole percent; only the length rule decides validity.
func Evaluate(pw string) Result {
	res := Result{Rules: make([]RuleResult, 0, len(rules))}
	passed := 0
	for _, r := range rules {
		ok := r.check(pw)
		if ok {
			passed++
		}
		res.Rules = append(res.Rules, RuleResult{ID: r.id, Passed: ok})
	}

	res.Strength = int(math.Round(float64(passed) / float64(len(rules)) * 100))
	res.Valid = res.Rules[0].Passed

	switch {
	case pw == "":
		res.Level = LevelNone
	case res.Strength < 40:
		res.Level = LevelWeak
	case res.Strength < 70:
		res.Level = LevelMedium
	default:
		res.Level = LevelStrong
	}
	return res
}

// Match compares a confirmation entry with the password. Status is only
// shown once something has been typed into the confirmation field.
func Match(pw, confirm string) MatchResult {
	return MatchResult{
		Matching:   pw != "" && pw == confirm,
		ShowStatus: confirm != "",
	}
}

func containsRange(lo, hi rune) func(string) bool {
	return func(s string) bool {
		for _, r := range s {
			if r >= lo && r <= hi {
				return true
			}
		}
		return false
	}
}
