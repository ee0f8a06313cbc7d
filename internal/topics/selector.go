// Package topics picks the topic of the day for a client from its topic
// bank, with built-in fallback banks per niche.
package topics

import (
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"shortforge/internal/clients"
)

const defaultTopic = "Daily insights"

var calendarDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Select returns the topic for the given day. Selection is deterministic
// for a (client, date) pair so re-runs on the same day pick the same topic.
func Select(client clients.Profile, date time.Time) string {
	bank := client.TopicBank
	if len(bank) == 0 {
		bank = fallbackBank(client.Niche)
	}
	if len(bank) == 0 {
		return defaultTopic
	}

	switch client.TopicSelectionMode {
	case clients.SelectRandom:
		seed := client.ID + ":" + dateKey(date)
		return bank[seededPick(seed, len(bank))]
	case clients.SelectCalendar:
		return selectCalendar(bank, date)
	default:
		return bank[dayOfYear(date)%len(bank)]
	}
}

func selectCalendar(bank []string, date time.Time) string {
	key := dateKey(date)
	var plain []string
	for _, entry := range bank {
		if entryKey, topic, ok := parseCalendarEntry(entry); ok {
			if entryKey == key {
				return topic
			}
			continue
		}
		if strings.TrimSpace(entry) != "" {
			plain = append(plain, entry)
		}
	}
	if len(plain) == 0 {
		return bank[dayOfYear(date)%len(bank)]
	}
	return plain[dayOfYear(date)%len(plain)]
}

// parseCalendarEntry splits "YYYY-MM-DD|topic" entries. Topics may contain
// further pipes.
func parseCalendarEntry(entry string) (dateKey, topic string, ok bool) {
	idx := strings.Index(entry, "|")
	if idx < 0 {
		return "", "", false
	}
	dateKey = strings.TrimSpace(entry[:idx])
	topic = strings.TrimSpace(entry[idx+1:])
	if !calendarDatePattern.MatchString(dateKey) || topic == "" {
		return "", "", false
	}
	return dateKey, topic, true
}

func dateKey(date time.Time) string {
	return date.UTC().Format("2006-01-02")
}

func dayOfYear(date time.Time) int {
	return date.UTC().YearDay()
}

// seededPick hashes the seed with 32-bit FNV-1a and reduces it modulo n.
func seededPick(seed string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(seed))
	return int(h.Sum32() % uint32(n))
}

func fallbackBank(niche string) []string {
	normalized := strings.ToLower(niche)
	if strings.Contains(normalized, "devops") {
		return devopsTopics
	}
	if strings.Contains(normalized, "finance") {
		return financeTopics
	}
	return techTopics
}
