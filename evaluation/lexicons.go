package evaluation

import "regexp"

// Lexicons the heuristic evaluators match against. Matching is
// case-insensitive substring presence for words, occurrence counting for
// patterns.

var supportiveWords = []string{
	"great", "excellent", "proud", "progress", "growth",
	"consistent", "amazing", "wonderful", "improving", "success",
	"achievement", "celebrate", "fantastic", "brilliant", "awesome",
	"well done", "keep going", "you've got this", "believe", "strength",
}

var negativeWords = []string{
	"failed", "terrible", "bad", "disappointing", "quit",
	"gave up", "useless", "pathetic", "waste", "failure",
	"lazy", "shame", "should have", "wrong",
}

var actionablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)try`),
	regexp.MustCompile(`(?i)consider`),
	regexp.MustCompile(`(?i)you could`),
	regexp.MustCompile(`(?i)you might`),
	regexp.MustCompile(`(?i)suggestion`),
	regexp.MustCompile(`(?i)recommend`),
	regexp.MustCompile(`(?i)next time`),
	regexp.MustCompile(`(?i)tomorrow`),
	regexp.MustCompile(`(?i)this week`),
	regexp.MustCompile(`(?i)start by`),
	regexp.MustCompile(`(?i)begin with`),
	regexp.MustCompile(`(?i)focus on`),
	regexp.MustCompile(`(?i)goal`),
	regexp.MustCompile(`(?i)plan`),
	regexp.MustCompile(`(?i)schedule`),
	regexp.MustCompile(`(?i)set aside`),
	regexp.MustCompile(`(?i)step\s?\d`),
	regexp.MustCompile(`(?i)first`),
	regexp.MustCompile(`(?i)then`),
	regexp.MustCompile(`(?i)after that`),
}
