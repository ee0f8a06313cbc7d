package quality_test

import (
	"strings"
	"testing"

	"shortforge/internal/media"
	"shortforge/internal/quality"
)

func sampleScript() media.Script {
	body := strings.Join([]string{
		"This intro gives context and keeps the message clear for busy viewers.",
		"It adds practical guidance so people can apply the idea immediately.",
		"Each point is short, concrete, and easy to remember after watching once.",
		"Examples keep the explanation grounded in realistic day-to-day decisions.",
		"The pacing remains fast while still giving enough depth to be useful.",
		"A final recap reinforces the key lesson and invites quick action today.",
		"Extra insight helps the script reach the required word target naturally.",
		"Another useful tip improves clarity and keeps momentum high throughout.",
		"This sentence supports retention with a simple memorable phrasing pattern.",
		"Closing context ensures the audience understands why the topic matters now.",
		"The final educational point adds value without introducing complexity.",
	}, " ")
	return media.Script{
		Topic:             "Prompt Engineering Basics",
		Niche:             "AI productivity",
		Language:          "en-US",
		Tone:              media.ToneEducational,
		Hook:              "Master prompts faster with this simple framework today.",
		Body:              body,
		CTA:               "Follow for more practical AI productivity lessons and save this.",
		TitleSuggestions:  []string{"A", "B", "C"},
		Description:       "Desc",
		Tags:              []string{"shorts"},
		DurationSecTarget: 55,
	}
}

func TestCountWordsHandlesNoisyWhitespace(t *testing.T) {
	if got := quality.CountWords("  One   two\nthree\t four  "); got != 4 {
		t.Fatalf("expected 4 words, got %d", got)
	}
}

func TestValidatePassesCompliantScript(t *testing.T) {
	result := quality.Validate(sampleScript())
	if !result.OK {
		t.Fatalf("expected valid script, got issues: %v", result.Issues)
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	script := sampleScript()
	script.Hook = "This hook is intentionally too long to violate the strict sixteen word maximum in the quality gate."
	script.Body = "Too short."
	script.CTA = "Great explanation here."
	script.DurationSecTarget = 75

	result := quality.Validate(script)
	if result.OK {
		t.Fatal("expected validation failure")
	}
	if len(result.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %d: %v", len(result.Issues), result.Issues)
	}
	wants := []string{"wordCount must be between 130 and 190", "hook must be 16 words or fewer (got 17)", "durationSecTarget must be 60 seconds or fewer (got 75)", "call-to-action verb"}
	for i, want := range wants {
		if !strings.Contains(result.Issues[i], want) {
			t.Errorf("issue %d = %q, want it to mention %q", i, result.Issues[i], want)
		}
	}
}

func TestValidateRejectsEmptyCTA(t *testing.T) {
	script := sampleScript()
	script.CTA = "   "
	result := quality.Validate(script)
	if result.OK {
		t.Fatal("expected validation failure for blank cta")
	}
	found := false
	for _, issue := range result.Issues {
		if strings.Contains(issue, "cta must be non-empty") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing blank-cta issue in %v", result.Issues)
	}
}

func TestFixupReturnsOriginalWhenClean(t *testing.T) {
	script := sampleScript()
	fixed := quality.Fixup(script, nil)
	if fixed.Body != script.Body || fixed.Hook != script.Hook {
		t.Fatal("clean script must pass through unchanged")
	}
}

func TestFixupProducesCompliantScript(t *testing.T) {
	script := sampleScript()
	script.Hook = "This hook is intentionally too long to violate the strict sixteen word maximum in the quality gate."
	script.Body = "Too short."
	script.CTA = "Thanks for watching."
	script.DurationSecTarget = 75

	fixed := quality.Fixup(script, []string{"some issue"})
	if fixed.Topic != script.Topic || fixed.Niche != script.Niche || fixed.Tone != script.Tone || fixed.Language != script.Language {
		t.Fatal("fixup must preserve topic, niche, tone, and language")
	}
	if quality.CountWords(fixed.Hook) > 16 {
		t.Fatalf("fixed hook too long: %q", fixed.Hook)
	}
	if fixed.DurationSecTarget > 60 {
		t.Fatalf("fixed duration too long: %d", fixed.DurationSecTarget)
	}
	if len(fixed.TitleSuggestions) != 3 {
		t.Fatalf("expected 3 title suggestions, got %d", len(fixed.TitleSuggestions))
	}
	if !strings.Contains(fixed.Description, script.Topic) {
		t.Fatalf("description missing topic: %q", fixed.Description)
	}
	hasNicheTag := false
	for _, tag := range fixed.Tags {
		if tag == strings.ToLower(script.Niche) {
			hasNicheTag = true
		}
	}
	if !hasNicheTag {
		t.Fatalf("tags missing niche: %v", fixed.Tags)
	}
	if result := quality.Validate(fixed); !result.OK {
		t.Fatalf("fixed script fails validation: %v", result.Issues)
	}
}
