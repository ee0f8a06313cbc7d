// Package stub implements deterministic offline providers used for local
// development and tests. No network access, no credentials.
package stub

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"shortforge/internal/clients"
	"shortforge/internal/media"
)

const writerStyle = "YouTube Shorts tech explainer"

// Writer produces deterministic scripts seeded by client and topic, so the
// same inputs always yield the same script.
type Writer struct{}

// NewWriter returns a stub script writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteScript builds a script from seeded template picks.
func (w *Writer) WriteScript(_ context.Context, client clients.Profile, topic string) (media.Script, error) {
	seed := hashString(client.ID + topic)
	languageName := languageDisplayName(client.Language)

	hooks := []string{
		fmt.Sprintf("Stop scrolling: here's %s explained in under a minute using a %s vibe.", topic, writerStyle),
		fmt.Sprintf("In the next 55 seconds, you'll finally understand %s like a pro creator.", topic),
		fmt.Sprintf("If %s sounds confusing, this quick breakdown will make it click fast.", topic),
		fmt.Sprintf("Let's decode %s with a fast, practical %s format.", topic, writerStyle),
	}

	bodies := [][]string{
		{
			fmt.Sprintf("%s matters because it directly shapes how modern apps feel and perform.", topic),
			"Think of it as a shortcut that removes friction before users even notice it.",
			"Step one is identifying the core problem instead of chasing flashy tools.",
			"Step two is applying a simple rule you can repeat every single project.",
			"Step three is validating results with one metric that actually reflects user impact.",
			fmt.Sprintf("That sequence turns %s from theory into a practical habit.", topic),
		},
		{
			fmt.Sprintf("Most people overcomplicate %s, but the core idea is surprisingly simple.", topic),
			"You start by mapping inputs, then outputs, then the bottleneck in between.",
			"Once that bottleneck is visible, the right fix becomes much easier to choose.",
			"A tiny improvement here can create a huge difference at scale.",
			"The real win is consistency, not perfection on day one.",
			fmt.Sprintf("Run this loop weekly and you'll build serious momentum with %s.", topic),
		},
		{
			fmt.Sprintf("%s is basically the bridge between good ideas and real-world execution.", topic),
			"First, define success in one sentence so decisions stay focused.",
			"Then remove one unnecessary step from your current workflow.",
			"Next, automate one repetitive action to save time every day.",
			"Finally, review outcomes and keep only what clearly improves results.",
			fmt.Sprintf("That's how creators and teams level up %s quickly.", topic),
		},
	}

	ctas := []string{
		fmt.Sprintf("Follow for more %s explainers and drop your next topic in the comments.", client.Niche),
		fmt.Sprintf("Like and subscribe for daily %s Shorts that turn complex ideas into action.", client.Niche),
		fmt.Sprintf("Save this Short, share it with a friend, and follow for more %s breakdowns.", client.Niche),
	}

	tags := dedupe([]string{
		"shorts",
		"youtube shorts",
		"tech explainer",
		strings.ToLower(topic),
		topicSlug(topic),
		strings.ToLower(client.Niche),
		string(client.Tone),
		strings.ToLower(languageName),
		"content creator",
		"learn tech fast",
	})
	if len(tags) > 12 {
		tags = tags[:12]
	}

	return media.Script{
		Topic:    topic,
		Niche:    client.Niche,
		Language: client.Language,
		Tone:     client.Tone,
		Hook:     hooks[seed%uint32(len(hooks))],
		Body:     strings.Join(bodies[(seed+3)%uint32(len(bodies))], " "),
		CTA:      ctas[(seed+7)%uint32(len(ctas))],
		TitleSuggestions: []string{
			fmt.Sprintf("%s in 55 Seconds (%s Edition)", topic, client.Niche),
			fmt.Sprintf("The Fastest Way to Understand %s", topic),
			fmt.Sprintf("%s: Quick %s Guide", topic, writerStyle),
		},
		Description:       fmt.Sprintf("%s explained in a %s format for %s learners. #Shorts %s", topic, writerStyle, client.Niche, strings.Join(nicheHashtags(client.Niche), " ")),
		Tags:              tags,
		DurationSecTarget: 55,
	}, nil
}

func hashString(value string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(value))
	return h.Sum32()
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

func topicSlug(topic string) string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(topic), " ")
	return strings.Join(strings.Fields(cleaned), "-")
}

func nicheHashtags(niche string) []string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(niche), " ")
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return []string{"#Tech"}
	}
	var merged strings.Builder
	merged.WriteString("#")
	tags := make([]string, 0, len(words)+1)
	for _, word := range words {
		title := strings.ToUpper(word[:1]) + word[1:]
		merged.WriteString(title)
		tags = append(tags, "#"+title)
	}
	tags = append([]string{merged.String()}, tags...)
	if len(tags) > 3 {
		tags = tags[:3]
	}
	return tags
}

// languageDisplayName maps a BCP 47 tag to its English base-language name,
// e.g. "en-GB" to "English".
func languageDisplayName(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	base, _ := parsed.Base()
	name := display.English.Languages().Name(language.Make(base.String()))
	if name == "" {
		return tag
	}
	return name
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
