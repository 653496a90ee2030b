package narrate

import (
	"regexp"
	"strings"
)

// vaguenessThreshold is the combined keyword/pattern match count at which a
// summary is rejected as low-information.
const vaguenessThreshold = 3

// Explicit-negation screening: a summary is rejected when it contains both a
// lack/negation keyword and an information-context keyword anywhere in the
// case-folded text. "Specific details are unavailable" trips both lists;
// "the museum is closed on Mondays" trips neither.
var negationKeywords = []string{
	"unavailable",
	"not available",
	"cannot",
	"can't",
	"unable to",
	"no information",
	"don't have",
	"do not have",
	"not aware",
	"unknown",
	"lacking",
}

var infoContextKeywords = []string{
	"details",
	"specific",
	"information",
	"facts",
	"data",
	"record",
	"history",
}

// Vagueness scoring: matches across the three families below are summed and
// compared against vaguenessThreshold.
var hedgingKeywords = []string{
	"appears to be",
	"seems to be",
	"likely",
	"probably",
	"perhaps",
	"typical",
	"generally",
	"often",
	"commonly",
	"in general",
}

var speculativeKeywords = []string{
	"might",
	"may be",
	"could be",
	"presumably",
	"possibly",
	"one can imagine",
	"it is said",
	"reportedly",
}

var vaguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bmight be (a|an|some)\b`),
	regexp.MustCompile(`\bpoint of interest\b`),
	regexp.MustCompile(`\b(a|an) (local|typical|ordinary) \w+\b`),
	regexp.MustCompile(`\bworth (a|your) (visit|look|stop)\b`),
	regexp.MustCompile(`\blittle is known\b`),
}

// IsLowInformation reports whether a generated summary signals "insufficient
// information" and should be discarded instead of narrated. The non-empty
// reason names the detection path that fired.
//
// This is a heuristic screen: false negatives are acceptable, the goal is to
// catch templated non-answers before they reach text-to-speech.
func IsLowInformation(text string) (reason string, low bool) {
	folded := strings.ToLower(text)

	if containsAny(folded, negationKeywords) && containsAny(folded, infoContextKeywords) {
		return "explicit negation", true
	}

	score := countMatches(folded, hedgingKeywords) +
		countMatches(folded, speculativeKeywords)
	for _, re := range vaguePatterns {
		score += len(re.FindAllStringIndex(folded, -1))
	}
	if score >= vaguenessThreshold {
		return "vague content", true
	}

	return "", false
}

func containsAny(folded string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(folded, k) {
			return true
		}
	}
	return false
}

func countMatches(folded string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		n += strings.Count(folded, k)
	}
	return n
}
