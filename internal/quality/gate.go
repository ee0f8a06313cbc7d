// Package quality enforces the script quality gate: word counts, hook
// length, duration, and call-to-action phrasing.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"shortforge/internal/media"
)

const (
	minWordCount   = 130
	maxWordCount   = 190
	maxHookWords   = 16
	maxDurationSec = 60
)

var ctaVerbs = []string{"follow", "subscribe", "learn", "save"}

var ctaVerbPattern = regexp.MustCompile(`(?i)\b(follow|subscribe|learn|save)\b`)

// Result reports the gate outcome. Issues is empty when OK is true.
type Result struct {
	OK     bool
	Issues []string
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Validate checks the script against every gate and collects all failures
// rather than stopping at the first one.
func Validate(script media.Script) Result {
	var issues []string

	wordCount := CountWords(script.Hook + " " + script.Body + " " + script.CTA)
	if wordCount < minWordCount || wordCount > maxWordCount {
		issues = append(issues, fmt.Sprintf("wordCount must be between %d and %d words (got %d)", minWordCount, maxWordCount, wordCount))
	}

	if hookWords := CountWords(script.Hook); hookWords > maxHookWords {
		issues = append(issues, fmt.Sprintf("hook must be %d words or fewer (got %d)", maxHookWords, hookWords))
	}

	if script.DurationSecTarget > maxDurationSec {
		issues = append(issues, fmt.Sprintf("durationSecTarget must be %d seconds or fewer (got %d)", maxDurationSec, script.DurationSecTarget))
	}

	if strings.TrimSpace(script.CTA) == "" {
		issues = append(issues, "cta must be non-empty")
	} else if !ctaVerbPattern.MatchString(script.CTA) {
		issues = append(issues, fmt.Sprintf("cta must include at least one call-to-action verb (%s)", strings.Join(ctaVerbs, ", ")))
	}

	return Result{OK: len(issues) == 0, Issues: issues}
}

// Fixup returns the script unchanged when it has no issues, otherwise a
// deterministic compliant rewrite that keeps the topic, niche, tone, and
// language.
func Fixup(script media.Script, issues []string) media.Script {
	if len(issues) == 0 {
		return script
	}

	fixed := script
	fixed.Hook = limitWords(fmt.Sprintf("%s made simple for %s creators.", script.Topic, script.Niche), maxHookWords)
	fixed.Body = strings.Join([]string{
		fmt.Sprintf("%s matters in %s because clear fundamentals help people make better decisions quickly and avoid expensive mistakes early.", script.Topic, script.Niche),
		"Start by defining one practical goal, then choose one signal that proves progress so your process stays grounded and measurable.",
		"Next, break the topic into small actions your audience can repeat this week, even with limited time, tools, or prior experience.",
		fmt.Sprintf("Use a %s explanation style with concrete examples so abstract ideas become memorable, useful, and easy to apply immediately.", script.Tone),
		"Keep each step focused on outcomes, remove unnecessary jargon, and connect every point to real situations your viewers recognize daily.",
		"Close by summarizing the key takeaway in one line so the lesson feels complete and your audience knows exactly what to do next.",
	}, " ")
	fixed.CTA = fmt.Sprintf("Follow and save this short to learn more %s lessons on %s.", script.Niche, script.Topic)
	if fixed.DurationSecTarget > maxDurationSec {
		fixed.DurationSecTarget = maxDurationSec
	}
	fixed.TitleSuggestions = TitleSuggestions(fixed.Topic, fixed.Niche)
	fixed.Description = Description(fixed)
	fixed.Tags = Tags(fixed)
	return fixed
}

// TitleSuggestions builds three candidate upload titles.
func TitleSuggestions(topic, niche string) []string {
	return []string{
		fmt.Sprintf("%s: Fast %s Breakdown", topic, niche),
		fmt.Sprintf("%s Explained in Under a Minute", topic),
		fmt.Sprintf("How %s Works (%s Edition)", topic, niche),
	}
}

// Description builds the upload description with hashtag suffix.
func Description(script media.Script) string {
	hashtag := strings.Join(strings.Fields(script.Niche), "")
	return fmt.Sprintf("%s in plain language for %s audiences with a %s tone. #Shorts #%s", script.Topic, script.Niche, script.Tone, hashtag)
}

// Tags builds deduplicated lowercase upload tags.
func Tags(script media.Script) []string {
	base := []string{
		"shorts",
		"youtube shorts",
		strings.ToLower(script.Topic),
		strings.ToLower(script.Niche),
		string(script.Tone),
		strings.ToLower(script.Language),
		"learn fast",
	}
	seen := make(map[string]struct{}, len(base))
	tags := make([]string, 0, len(base))
	for _, tag := range base {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func limitWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) > max {
		words = words[:max]
	}
	return strings.Join(words, " ")
}
