package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		pw       string
		strength int
		level    Level
		valid    bool
		passed   []string
	}{
		{"empty", "", 0, LevelNone, false, nil},
		{"lowercase only", "abc", 20, LevelWeak, false, []string{RuleLowercase}},
		{"digits only but long", "123456", 40, LevelMedium, true, []string{RuleLength, RuleNumber}},
		{"mixed case", "Abcdef", 60, LevelMedium, true, []string{RuleLength, RuleUppercase, RuleLowercase}},
		{"four rules", "Abcde1", 80, LevelStrong, true, []string{RuleLength, RuleUppercase, RuleLowercase, RuleNumber}},
		{"all rules", "Abcde1!", 100, LevelStrong, true, []string{RuleLength, RuleUppercase, RuleLowercase, RuleNumber, RuleSpecial}},
		{"short but varied", "Ab1!", 80, LevelStrong, false, []string{RuleUppercase, RuleLowercase, RuleNumber, RuleSpecial}},
		{"special outside class", "~~~~~~", 20, LevelWeak, true, []string{RuleLength}},
		{"runes count as characters", "密码密码密码", 20, LevelWeak, true, []string{RuleLength}},
		{"non-ascii letters are not cased", "ÄÖÜäöü", 20, LevelWeak, true, []string{RuleLength}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.pw)
			assert.Equal(t, tt.strength, res.Strength)
			assert.Equal(t, tt.level, res.Level)
			assert.Equal(t, tt.valid, res.Valid)

			var passed []string
			for _, r := range res.Rules {
				if r.Passed {
					passed = append(passed, r.ID)
				}
			}
			assert.Equal(t, tt.passed, passed)
		})
	}
}

func TestEvaluateRuleOrder(t *testing.T) {
	res := Evaluate("x")
	ids := make([]string, 0, len(res.Rules))
	for _, r := range res.Rules {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{RuleLength, RuleUppercase, RuleLowercase, RuleNumber, RuleSpecial}, ids)
}

func TestMatch(t *testing.T) {
	assert.Equal(t, MatchResult{Matching: false, ShowStatus: false}, Match("secret", ""))
	assert.Equal(t, MatchResult{Matching: false, ShowStatus: true}, Match("secret", "secre"))
	assert.Equal(t, MatchResult{Matching: true, ShowStatus: true}, Match("secret", "secret"))
	assert.Equal(t, MatchResult{Matching: false, ShowStatus: false}, Match("", ""))
}
