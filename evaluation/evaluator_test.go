package evaluation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/noahdevelopsio/lifeos/tracking"
)

// recordingSink captures scores without the full mocks package, which would
// be an import cycle from an internal test.
type recordingSink struct {
	scores []tracking.Score
}

func (s *recordingSink) Trace(context.Context, tracking.Trace) error { return nil }
func (s *recordingSink) Span(context.Context, tracking.Span) error   { return nil }
func (s *recordingSink) Log(context.Context, tracking.Event) error   { return nil }
func (s *recordingSink) Score(_ context.Context, sc tracking.Score) error {
	s.scores = append(s.scores, sc)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	emit := tracking.NewDispatcher(sink, time.Second, zaptest.NewLogger(t))
	return NewEngine(emit), sink
}

// --- supportiveness ---

func TestScoreSupportiveness_NeutralBaseline(t *testing.T) {
	// Ten neutral words: no lexicon hits, raw contribution 0, baseline 0.5.
	score, supportive, negative, words := scoreSupportiveness("one two three four five six seven eight nine ten")
	assert.Equal(t, 0.5, score)
	assert.Equal(t, 0, supportive)
	assert.Equal(t, 0, negative)
	assert.Equal(t, 10, words)
}

func TestScoreSupportiveness_SupportiveTone(t *testing.T) {
	// Two supportive hits over 10 words: (2-0)/1 + 0.5, clamped to 1.
	score, supportive, _, words := scoreSupportiveness("great progress here keep it up the whole way through")
	assert.Equal(t, 10, words)
	assert.Equal(t, 2, supportive)
	assert.Equal(t, 1.0, score)
}

func TestScoreSupportiveness_NegativeTonePenalized(t *testing.T) {
	// One negative hit over 10 words: (0-2)/1 + 0.5 = -1.5, clamped to 0.
	score, supportive, negative, _ := scoreSupportiveness("you failed again and this is not a good result")
	assert.Equal(t, 0, supportive)
	assert.Equal(t, 1, negative)
	assert.Equal(t, 0.0, score)
}

func TestScoreSupportiveness_ShortResponseFloor(t *testing.T) {
	// Two words: the divisor floors at 1, so one hit still moves the
	// score a full point.
	score, _, _, words := scoreSupportiveness("great job")
	assert.Equal(t, 2, words)
	assert.Equal(t, 1.0, score)
}

func TestScoreSupportiveness_EmptyResponse(t *testing.T) {
	score, supportive, negative, words := scoreSupportiveness("")
	assert.Equal(t, 0.5, score)
	assert.Zero(t, supportive)
	assert.Zero(t, negative)
	assert.Zero(t, words)
}

func TestScoreSupportiveness_CaseInsensitive(t *testing.T) {
	upper, _, _, _ := scoreSupportiveness("GREAT WORK TODAY FRIEND ONE TWO THREE FOUR FIVE SIX")
	lower, _, _, _ := scoreSupportiveness("great work today friend one two three four five six")
	assert.Equal(t, lower, upper)
}

// --- actionability ---

func TestScoreActionability_CountsOccurrences(t *testing.T) {
	// "try" twice and "tomorrow" once: 3 occurrences out of 6.
	score, count := scoreActionability("Try journaling tomorrow, and try a shorter format.")
	assert.Equal(t, 3, count)
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestScoreActionability_SaturatesAtCap(t *testing.T) {
	score, count := scoreActionability("try consider plan goal schedule first then tomorrow")
	assert.GreaterOrEqual(t, count, 6)
	assert.Equal(t, 1.0, score)
}

func TestScoreActionability_NumberedSteps(t *testing.T) {
	score, count := scoreActionability("Step 1: breathe. Step 2: write.")
	assert.Equal(t, 2, count)
	assert.InDelta(t, 2.0/6.0, score, 1e-9)
}

func TestScoreActionability_NoSuggestions(t *testing.T) {
	score, count := scoreActionability("That sounds like it was a calm day.")
	assert.Zero(t, count)
	assert.Zero(t, score)
}

// --- personalization ---

func TestScorePersonalization_AllSignals(t *testing.T) {
	user := UserContext{
		Name:                "Maya",
		ActiveGoals:         []string{"meditation"},
		CurrentStreak:       12,
		PreferredCategories: []string{"fitness"},
	}
	score, sig := scorePersonalization("Maya, your meditation streak and fitness focus are paying off.", user)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, 4, sig.count())
}

func TestScorePersonalization_StreakByNumber(t *testing.T) {
	user := UserContext{CurrentStreak: 12}
	score, sig := scorePersonalization("That makes 12 days in a row.", user)
	assert.True(t, sig.streak)
	assert.Equal(t, 0.25, score)
}

func TestScorePersonalization_ZeroStreakNeverMatches(t *testing.T) {
	user := UserContext{CurrentStreak: 0}
	_, sig := scorePersonalization("Your streak is building.", user)
	assert.False(t, sig.streak)
}

func TestScorePersonalization_EmptyContext(t *testing.T) {
	score, sig := scorePersonalization("A thoughtful generic response.", UserContext{})
	assert.Zero(t, score)
	assert.Zero(t, sig.count())
}

// --- length ---

func TestScoreLength(t *testing.T) {
	tests := []struct {
		name   string
		length int
		want   float64
	}{
		{"at min", 100, 1},
		{"in range", 400, 1},
		{"at max", 800, 1},
		{"half of min", 50, 0.5},
		{"empty", 0, 0},
		{"just over max", 1000, 0.8},
		{"far over max floors at half", 100000, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreLength(tt.length, DefaultMinLength, DefaultMaxLength), 1e-9)
		})
	}
}

// --- composite ---

func TestOverallQuality_WeightedSum(t *testing.T) {
	engine, sink := newTestEngine(t)

	response := strings.Repeat("Great progress. Try to keep your meditation goal going. ", 4)
	user := UserContext{ActiveGoals: []string{"meditation"}}

	res, err := engine.OverallQuality(context.Background(), "trace-1", response, user)
	require.NoError(t, err)

	want := res.Supportiveness*0.35 + res.Actionability*0.30 + res.Personalization*0.20 + res.Length*0.15
	assert.InDelta(t, want, res.Overall, 1e-9)

	// One score per sub-metric plus the composite.
	require.Len(t, sink.scores, 5)
	var names []string
	for _, sc := range sink.scores {
		assert.Equal(t, "trace-1", sc.TraceID)
		names = append(names, sc.Name)
	}
	assert.ElementsMatch(t, []string{
		tracking.MetricSupportiveness,
		tracking.MetricActionability,
		tracking.MetricPersonalization,
		tracking.MetricResponseLength,
		tracking.MetricOverallQuality,
	}, names)
}

func TestOverallQuality_CompositeMetadataCarriesSubScores(t *testing.T) {
	engine, sink := newTestEngine(t)

	res, err := engine.OverallQuality(context.Background(), "trace-1", "short", UserContext{})
	require.NoError(t, err)

	var composite *tracking.Score
	for i := range sink.scores {
		if sink.scores[i].Name == tracking.MetricOverallQuality {
			composite = &sink.scores[i]
		}
	}
	require.NotNil(t, composite)
	assert.Equal(t, res.Supportiveness, composite.Metadata["supportiveness_score"])
	assert.Equal(t, res.Length, composite.Metadata["length_score"])
	assert.Equal(t, TargetOverall, composite.Metadata["target"])
}

// --- properties ---

func TestScores_AlwaysInUnitInterval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		response := rapid.String().Draw(t, "response")
		user := UserContext{
			Name:          rapid.StringMatching(`[A-Za-z]{0,10}`).Draw(t, "name"),
			CurrentStreak: rapid.IntRange(0, 1000).Draw(t, "streak"),
		}

		s, _, _, _ := scoreSupportiveness(response)
		a, _ := scoreActionability(response)
		p, _ := scorePersonalization(response, user)
		l := scoreLength(len(response), DefaultMinLength, DefaultMaxLength)

		for _, v := range []float64{s, a, p, l} {
			if v < 0 || v > 1 {
				t.Fatalf("score %v outside [0,1] for response %q", v, response)
			}
		}
	})
}

func TestScoreActionability_MonotoneInRepetition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "n")
		base := "try "
		shorter, _ := scoreActionability(strings.Repeat(base, n))
		longer, _ := scoreActionability(strings.Repeat(base, n+1))
		if longer < shorter {
			t.Fatalf("score decreased with more suggestions: %v -> %v", shorter, longer)
		}
	})
}
