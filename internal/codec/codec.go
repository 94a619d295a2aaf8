// Package codec renders grading prompts and recovers structured results
// from raw model output. Parsing is best-effort: models wrap their answer
// in prose or code fences, so extraction tries the fenced path first and
// falls back to delimiter counting.
package codec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"graded/pkg/types"
)

// PromptParts splits the rendered prompt into a static context segment and
// the per-student dynamic segment. Callers may fuse them or keep them
// separate for prefix reuse; Join produces the canonical fused text.
type PromptParts struct {
	Context string
	Dynamic string
}

// Join concatenates the two segments into one prompt.
func (p PromptParts) Join() string { return p.Context + p.Dynamic }

// BuildPrompt renders the instruction template for one grading request.
// The output-format directive pins the model to a single compact JSON
// object so Parse has a fighting chance.
func BuildPrompt(req types.GradingRequest) PromptParts {
	var ctx strings.Builder
	ctx.WriteString("You are grading a student's answer to an assessment question.\n\n")
	fmt.Fprintf(&ctx, "Question:\n%s\n\n", req.QuestionText)
	fmt.Fprintf(&ctx, "Marking guide:\n%s\n\n", req.MarkingGuide)
	fmt.Fprintf(&ctx, "Maximum score: %d\n\n", req.MaxScore)
	ctx.WriteString("Respond with exactly one compact JSON object with two fields: " +
		"\"score\" (an integer between 0 and the maximum score) and " +
		"\"feedback\" (a short comment for the student, under 30 words). " +
		"Do not include any other text.\n\n")

	var dyn strings.Builder
	if req.StudentText != "" {
		fmt.Fprintf(&dyn, "Student's answer:\n%s\n", req.StudentText)
	}
	if req.HasImage() {
		dyn.WriteString("The student's answer is in the attached image.\n")
	}
	return PromptParts{Context: ctx.String(), Dynamic: dyn.String()}
}

// fenceRe matches a triple-backtick block (optionally tagged, e.g. ```json)
// whose body starts with a brace or bracket. Non-greedy so the shortest
// plausible block wins when the model emits several.
var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*([\\[{].*?[\\]}])\\s*```")

// Parse extracts a GradingResult from raw model text. It never fails:
// when no usable score/feedback can be recovered, the result carries a nil
// score and a diagnostic feedback embedding the raw text verbatim.
// Parse is a pure function; re-parsing the same text yields the same result.
func Parse(raw string) types.GradingResult {
	if span := extractSpan(raw); span != "" {
		if res, ok := decodeSpan(span); ok {
			return res
		}
	}
	return types.GradingResult{
		Score:    nil,
		Feedback: "could not parse model output: " + raw,
	}
}

// extractSpan isolates the JSON-looking substring: fenced block first, then
// a forward walk from the first opening delimiter counting nested pairs.
// The walk does not account for delimiters inside JSON string literals;
// the fenced path is the primary route and this is an accepted trade-off.
func extractSpan(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	start := strings.IndexAny(raw, "{[")
	if start < 0 {
		return ""
	}
	open := raw[start]
	var closing byte = '}'
	if open == '[' {
		closing = ']'
	}
	depth := 0
	for i := start; i < len(raw); i++ {
		switch raw[i] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return raw[start : i+1]
			}
		}
	}
	return ""
}

// rawResult is the wire shape the model is asked to produce. Score is kept
// loose (number or numeric string) because small models drift.
type rawResult struct {
	Score    json.RawMessage `json:"score"`
	Feedback string          `json:"feedback"`
}

func decodeSpan(span string) (types.GradingResult, bool) {
	var rr rawResult
	if err := json.Unmarshal([]byte(span), &rr); err != nil {
		// Try an array payload; first object element wins.
		var arr []rawResult
		if err := json.Unmarshal([]byte(span), &arr); err != nil || len(arr) == 0 {
			return types.GradingResult{}, false
		}
		rr = arr[0]
	}
	score, ok := decodeScore(rr.Score)
	if !ok || strings.TrimSpace(rr.Feedback) == "" {
		return types.GradingResult{}, false
	}
	return types.GradingResult{Score: &score, Feedback: rr.Feedback}, true
}

func decodeScore(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}
