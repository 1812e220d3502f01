// Package analysis scans a finished conversation for thematic drift.
//
// Theme counts are the number of distinct terms from each category that
// appear anywhere in the lowercased conversation text; repeated occurrences
// of one term count once. Lengths are measured in code points.
package analysis

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"attractor/pkg/transcript"
)

// MinTrendMessages is the fewest messages for which a length trend is computed.
const MinTrendMessages = 10

// ThemeCount is the result for one category.
type ThemeCount struct {
	Category Category
	Matched  []string
}

// Count is the number of distinct terms matched.
func (t ThemeCount) Count() int {
	return len(t.Matched)
}

// Trend compares average message length at the start and end of the run.
type Trend struct {
	Window   int
	FirstAvg float64
	LastAvg  float64
}

// Change is LastAvg minus FirstAvg.
func (t Trend) Change() float64 {
	return t.LastAvg - t.FirstAvg
}

// TokenUsage totals tokens per instance.
type TokenUsage struct {
	Encoding   string
	ByInstance map[transcript.Instance]int
	Total      int
}

// Report is everything Analyze computes.
type Report struct {
	Messages int
	Themes   []ThemeCount
	NonASCII int
	Trend    *Trend
}

// Theme returns the count for the named category, or zero.
func (r Report) Theme(name string) int {
	for _, t := range r.Themes {
		if t.Category.Name == name {
			return t.Count()
		}
	}
	return 0
}

// Analyze computes the report for log. It does not modify log.
func Analyze(log *transcript.Log) Report {
	messages := log.Messages()
	fullText := strings.ToLower(strings.Join(messages, " "))

	report := Report{
		Messages: len(messages),
		NonASCII: countNonASCII(fullText),
	}
	for _, category := range Categories {
		report.Themes = append(report.Themes, ThemeCount{
			Category: category,
			Matched:  matchTerms(category.Terms, fullText),
		})
	}

	if len(messages) >= MinTrendMessages {
		n := len(messages) / 3
		report.Trend = &Trend{
			Window:   n,
			FirstAvg: averageLength(messages[:n]),
			LastAvg:  averageLength(messages[len(messages)-n:]),
		}
	}

	return report
}

// CountTokens totals the tokens each instance spent. It does not modify log.
func CountTokens(log *transcript.Log, counter TokenCounter) TokenUsage {
	usage := TokenUsage{
		Encoding:   counter.Encoding(),
		ByInstance: make(map[transcript.Instance]int),
	}
	for _, turn := range log.Conversation {
		tokens := counter.Count(turn.Message)
		usage.ByInstance[turn.Instance] += tokens
		usage.Total += tokens
	}
	return usage
}

func matchTerms(terms []string, text string) []string {
	var matched []string
	for _, term := range terms {
		if strings.Contains(text, term) {
			matched = append(matched, term)
		}
	}
	return matched
}

func countNonASCII(text string) int {
	n := 0
	for _, r := range text {
		if r > 127 {
			n++
		}
	}
	return n
}

func averageLength(messages []string) float64 {
	total := 0
	for _, m := range messages {
		total += utf8.RuneCountInString(m)
	}
	return float64(total) / float64(len(messages))
}

// Print writes the report in its console layout.
func (r Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\nThematic Analysis:\n")
	for _, t := range r.Themes {
		fmt.Fprintf(w, "  %s: %d\n", t.Category.Label, t.Count())
	}

	fmt.Fprintf(w, "\nEmoji/Unicode usage: %d characters\n", r.NonASCII)

	if r.Trend != nil {
		fmt.Fprintf(w, "\nMessage length evolution:\n")
		fmt.Fprintf(w, "  First third average: %.0f characters\n", r.Trend.FirstAvg)
		fmt.Fprintf(w, "  Last third average: %.0f characters\n", r.Trend.LastAvg)
		fmt.Fprintf(w, "  Change: %+.0f characters\n", r.Trend.Change())
	}
}

// Print writes the token totals after the report.
func (u TokenUsage) Print(w io.Writer) {
	fmt.Fprintf(w, "\nToken usage (%s):\n", u.Encoding)
	fmt.Fprintf(w, "  Instance A: %d tokens\n", u.ByInstance[transcript.InstanceA])
	fmt.Fprintf(w, "  Instance B: %d tokens\n", u.ByInstance[transcript.InstanceB])
	fmt.Fprintf(w, "  Total: %d tokens\n", u.Total)
}
