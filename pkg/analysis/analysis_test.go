package analysis

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"attractor/pkg/transcript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logOf(messages ...string) *transcript.Log {
	l := transcript.New("grok-3", len(messages), "prompt", time.Now())
	for i, m := range messages {
		instance := transcript.InstanceA
		if i%2 == 1 {
			instance = transcript.InstanceB
		}
		l.Append(transcript.Turn{Turn: i, Instance: instance, Message: m})
	}
	return l
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestAnalyze_ThemeCounts(t *testing.T) {
	report := Analyze(logOf("Hello. What would you like to talk about?", "I feel deep cosmic bliss and harmony"))

	assert.Equal(t, 2, report.Theme("spiritual"))
	assert.Equal(t, 1, report.Theme("emotional"))
	assert.Equal(t, 0, report.Theme("technical"))
	assert.Equal(t, 0, report.Theme("philosophical"))
	assert.Equal(t, []string{"cosmic", "bliss"}, report.Themes[0].Matched)
}

func TestAnalyze_TermsCountOncePerTerm(t *testing.T) {
	report := Analyze(logOf("BLISS bliss Bliss", "the Model models"))

	assert.Equal(t, 1, report.Theme("spiritual"))
	assert.Equal(t, 1, report.Theme("technical"))
}

func TestAnalyze_SubstringMatching(t *testing.T) {
	// "soul" inside "soulful", "zen" inside "citizen".
	report := Analyze(logOf("a soulful citizen"))
	assert.Equal(t, 2, report.Theme("spiritual"))
}

func TestAnalyze_NonASCII(t *testing.T) {
	report := Analyze(logOf("plain", "café ✨", "🌌"))
	assert.Equal(t, 3, report.NonASCII)
}

func TestAnalyze_NoTrendBelowThreshold(t *testing.T) {
	report := Analyze(logOf(repeat("abc", 9)...))
	assert.Nil(t, report.Trend)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.NotContains(t, buf.String(), "Message length evolution")
}

func TestAnalyze_TrendUsesFloorThird(t *testing.T) {
	messages := append(repeat("abc", 6), repeat("abcdef", 6)...)
	report := Analyze(logOf(messages...))

	require.NotNil(t, report.Trend)
	assert.Equal(t, 4, report.Trend.Window)
	assert.Equal(t, 3.0, report.Trend.FirstAvg)
	assert.Equal(t, 6.0, report.Trend.LastAvg)
	assert.Equal(t, 3.0, report.Trend.Change())
}

func TestAnalyze_TrendWindowAtThreshold(t *testing.T) {
	// 10 messages: window of 3 from each end.
	messages := []string{"a", "a", "a", "bb", "bb", "bb", "bb", "cccc", "cccc", "cccc"}
	report := Analyze(logOf(messages...))

	require.NotNil(t, report.Trend)
	assert.Equal(t, 3, report.Trend.Window)
	assert.Equal(t, 1.0, report.Trend.FirstAvg)
	assert.Equal(t, 4.0, report.Trend.LastAvg)
}

func TestAnalyze_LengthCountsCodePoints(t *testing.T) {
	messages := append(repeat("ééé", 5), repeat("abc", 5)...)
	report := Analyze(logOf(messages...))

	require.NotNil(t, report.Trend)
	assert.Equal(t, 3.0, report.Trend.FirstAvg)
	assert.Equal(t, 0.0, report.Trend.Change())
}

func TestAnalyze_DoesNotModifyLog(t *testing.T) {
	l := logOf("One", "Two")
	before := append([]transcript.Turn(nil), l.Conversation...)

	Analyze(l)
	CountTokens(l, wordCounter{})

	assert.Equal(t, before, l.Conversation)
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }
func (wordCounter) Encoding() string      { return "words" }

func TestCountTokens(t *testing.T) {
	usage := CountTokens(logOf("one two", "three four five", "six"), wordCounter{})

	assert.Equal(t, "words", usage.Encoding)
	assert.Equal(t, 3, usage.ByInstance[transcript.InstanceA])
	assert.Equal(t, 3, usage.ByInstance[transcript.InstanceB])
	assert.Equal(t, 6, usage.Total)
}

func TestTokenUsage_Print(t *testing.T) {
	usage := CountTokens(logOf("one two", "three four five", "six"), wordCounter{})

	var buf bytes.Buffer
	usage.Print(&buf)

	want := `
Token usage (words):
  Instance A: 3 tokens
  Instance B: 3 tokens
  Total: 6 tokens
`
	assert.Equal(t, want, buf.String())
}

func TestNewTiktokenCounter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	counter, err := NewTiktokenCounter(ctx, DefaultEncoding)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, counter)
	assert.Less(t, time.Since(start), time.Second)
}

func TestReport_Print(t *testing.T) {
	messages := append(repeat("abc", 6), repeat("abcdefg cosmic", 6)...)
	report := Analyze(logOf(messages...))

	var buf bytes.Buffer
	report.Print(&buf)

	want := `
Thematic Analysis:
  Spiritual terms: 1
  Technical terms: 0
  Philosophical terms: 0
  Emotional markers: 0

Emoji/Unicode usage: 0 characters

Message length evolution:
  First third average: 3 characters
  Last third average: 14 characters
  Change: +11 characters
`
	assert.Equal(t, want, buf.String())
}
