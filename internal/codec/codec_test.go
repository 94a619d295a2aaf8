package codec

import (
	"strings"
	"testing"

	"graded/pkg/types"
)

func TestBuildPromptEmbedsQuestionGuideAndMax(t *testing.T) {
	req := types.GradingRequest{
		QuestionText: "What is 2+2?",
		MarkingGuide: "Full marks for 4.",
		MaxScore:     5,
		StudentText:  "4",
	}
	p := BuildPrompt(req)
	joined := p.Join()
	for _, want := range []string{"What is 2+2?", "Full marks for 4.", "Maximum score: 5", "\"score\"", "\"feedback\"", "30 words"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("prompt missing %q:\n%s", want, joined)
		}
	}
	if !strings.Contains(p.Dynamic, "Student's answer:\n4") {
		t.Fatalf("dynamic segment missing answer: %q", p.Dynamic)
	}
	if strings.Contains(p.Context, "4\n") && strings.Contains(p.Context, "Student") {
		t.Fatalf("student content leaked into context segment")
	}
}

func TestBuildPromptImageOnly(t *testing.T) {
	req := types.GradingRequest{QuestionText: "q", MarkingGuide: "g", MaxScore: 3, StudentImage: []byte{0xff}}
	p := BuildPrompt(req)
	if !strings.Contains(p.Dynamic, "attached image") {
		t.Fatalf("expected image note in dynamic segment, got %q", p.Dynamic)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	req := types.GradingRequest{QuestionText: "q", MarkingGuide: "g", MaxScore: 3, StudentText: "a"}
	if BuildPrompt(req).Join() != BuildPrompt(req).Join() {
		t.Fatalf("prompt rendering not deterministic")
	}
}

func TestParseFencedRoundTrip(t *testing.T) {
	raw := "Here is my assessment.\n```json\n{\"score\":7,\"feedback\":\"Good work\"}\n```\nLet me know if you need more."
	res := Parse(raw)
	if res.Score == nil || *res.Score != 7 || res.Feedback != "Good work" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseUntaggedFence(t *testing.T) {
	raw := "```\n{\"score\": 4, \"feedback\": \"ok\"}\n```"
	res := Parse(raw)
	if res.Score == nil || *res.Score != 4 || res.Feedback != "ok" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseFallbackExtraction(t *testing.T) {
	raw := `Sure! {"score": 3, "feedback": "ok"} Hope that helps!`
	res := Parse(raw)
	if res.Score == nil || *res.Score != 3 || res.Feedback != "ok" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseNestedBracesInFallback(t *testing.T) {
	raw := `prefix {"score": 2, "feedback": "fine", "extra": {"a": 1}} suffix`
	res := Parse(raw)
	if res.Score == nil || *res.Score != 2 || res.Feedback != "fine" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseArrayPayload(t *testing.T) {
	raw := `[{"score": 5, "feedback": "nice"}]`
	res := Parse(raw)
	if res.Score == nil || *res.Score != 5 || res.Feedback != "nice" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseScoreAsNumericString(t *testing.T) {
	raw := `{"score": "8", "feedback": "solid"}`
	res := Parse(raw)
	if res.Score == nil || *res.Score != 8 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseMalformedKeepsRawText(t *testing.T) {
	raw := "I cannot grade this answer, sorry."
	res := Parse(raw)
	if res.Score != nil {
		t.Fatalf("expected absent score, got %d", *res.Score)
	}
	if !strings.Contains(res.Feedback, raw) {
		t.Fatalf("diagnostic must embed raw text verbatim, got %q", res.Feedback)
	}
}

func TestParseMissingFeedbackIsFailure(t *testing.T) {
	raw := `{"score": 6}`
	res := Parse(raw)
	if res.Score != nil {
		t.Fatalf("score without feedback must not be usable")
	}
	if !strings.Contains(res.Feedback, raw) {
		t.Fatalf("diagnostic must embed raw text, got %q", res.Feedback)
	}
}

func TestParseIdempotent(t *testing.T) {
	raws := []string{
		"```json\n{\"score\":7,\"feedback\":\"Good work\"}\n```",
		`garbage with {broken json`,
		"no structure here at all",
	}
	for _, raw := range raws {
		a, b := Parse(raw), Parse(raw)
		if (a.Score == nil) != (b.Score == nil) || a.Feedback != b.Feedback {
			t.Fatalf("parse not idempotent for %q", raw)
		}
		if a.Score != nil && *a.Score != *b.Score {
			t.Fatalf("parse not idempotent for %q", raw)
		}
	}
}
