package router

import (
	"regexp"
	"strconv"
)

// IntentKind classifies a question into one of the three answer paths.
type IntentKind int

const (
	IntentGroundedQA IntentKind = iota
	IntentSummary
	IntentRefine
)

func (k IntentKind) String() string {
	switch k {
	case IntentSummary:
		return "summary"
	case IntentRefine:
		return "refine"
	default:
		return "grounded_qa"
	}
}

// Intent is the result of classifying a question. WordTarget is only
// meaningful for IntentRefine.
type Intent struct {
	Kind       IntentKind
	WordTarget int
}

var (
	summaryRe = regexp.MustCompile(`(?i)\bsummary\b|\bsummarize\b|\bsummarise\b|tl;dr`)
	refineRe  = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+words?\b`)
)

// Classify picks the answer path for a question. Summary keywords win over a
// refinement phrase, so "summarise in 100 words" is a summary request, not a
// rewrite of the previous answer.
func Classify(question string) Intent {
	if summaryRe.MatchString(question) {
		return Intent{Kind: IntentSummary}
	}
	if m := refineRe.FindStringSubmatch(question); m != nil {
		target, err := strconv.Atoi(m[1])
		if err == nil && target > 0 {
			return Intent{Kind: IntentRefine, WordTarget: target}
		}
	}
	return Intent{Kind: IntentGroundedQA}
}
