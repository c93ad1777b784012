// Package postproc normalizes provider output and derives the metrics
// recorded with every completed generation.
package postproc

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinKeepRatio is the midpoint threshold for the truncation repair: a
// sentence boundary is only used as a cut point when it lies past this
// fraction of the text. Cutting earlier would discard more than half of
// the output, at which point a forced closing tag loses less content.
const MinKeepRatio = 0.5

var (
	fenceRe = regexp.MustCompile("```(?:html?)?\\s*")
	tagRe   = regexp.MustCompile(`<[^>]*>`)
)

// closingTags are the endings accepted as well-formed. Output ending in
// any of these needs no repair.
var closingTags = []string{
	"</p>", "</ul>", "</ol>", "</table>", "</li>", "</h1>", "</h2>", "</h3>",
}

func endsProperly(s string) bool {
	for _, tag := range closingTags {
		if strings.HasSuffix(s, tag) {
			return true
		}
	}
	return false
}

// Normalize strips code-fence wrappers and repairs a truncated ending.
func Normalize(raw string) string {
	cleaned := strings.TrimSpace(fenceRe.ReplaceAllString(raw, ""))
	return EnsureProperEnding(cleaned)
}

// EnsureProperEnding guarantees the text never ends on an unterminated
// fragment. Already well-formed input is returned unchanged. The repair
// can legitimately discard up to half of pathological output; never
// emitting a dangling fragment is worth more than keeping every byte.
func EnsureProperEnding(content string) string {
	fixed := strings.TrimRight(content, " \t\r\n")

	// Drop a dangling "<..." fragment left by mid-tag truncation.
	if lastOpen := strings.LastIndex(fixed, "<"); lastOpen > strings.LastIndex(fixed, ">") {
		fixed = strings.TrimRight(fixed[:lastOpen], " \t\r\n")
	}

	if endsProperly(fixed) {
		return fixed
	}

	// Truncated mid-sentence: cut at the last sentence boundary, but only
	// when it lies past the midpoint.
	lastPunctuation := strings.LastIndexAny(fixed, ".!?")
	if float64(lastPunctuation) > float64(len(fixed))*MinKeepRatio {
		fixed = fixed[:lastPunctuation+1]
	}

	if !endsProperly(fixed) {
		fixed += "</p>"
	}

	return fixed
}

// StripTags removes all markup, leaving the plain text.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// PlainLength is the character count of the text with markup stripped.
func PlainLength(s string) int {
	return utf8.RuneCountInString(StripTags(s))
}

// Cost computes the USD cost of a call given per-1M-token prices. It is
// non-negative and strictly increasing in both token counts.
func Cost(inputTokens, outputTokens int, priceInputUSD, priceOutputUSD float64) float64 {
	return (float64(inputTokens)*priceInputUSD + float64(outputTokens)*priceOutputUSD) / 1_000_000
}

// MaxTokens budgets the provider call for a target character length.
// Polish text runs ~3-4 chars per token; the 2.5 margin keeps hard
// provider truncation from firing before the ending repair can act.
func MaxTokens(targetLength int) int {
	baseTokens := int(math.Ceil(float64(targetLength) / 3))
	withMargin := int(math.Ceil(float64(baseTokens) * 2.5))
	if withMargin < 1000 {
		return 1000
	}
	if withMargin > 8192 {
		return 8192
	}
	return withMargin
}

// Metrics is the derived measurement set for one completed generation.
type Metrics struct {
	Result       string
	ResultLength int
	PlainLength  int
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	CostUSD      float64
	LatencyMs    int64
	StopReason   string
	PromptLength int
}

// ComputeMetrics assembles the metrics for normalized final text. Token
// counts, latency and stop reason pass through from the provider.
func ComputeMetrics(finalText, model string, inputTokens, outputTokens, promptLength int, latencyMs int64, stopReason string, priceInputUSD, priceOutputUSD float64) *Metrics {
	return &Metrics{
		Result:       finalText,
		ResultLength: utf8.RuneCountInString(finalText),
		PlainLength:  PlainLength(finalText),
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      Cost(inputTokens, outputTokens, priceInputUSD, priceOutputUSD),
		LatencyMs:    latencyMs,
		StopReason:   stopReason,
		PromptLength: promptLength,
	}
}
