//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"regexp"
	"strings"
)

// habitLabelRe matches custom-attribute labels that encode habits, e.g.
// "a habit 3p7 Water the plants" or "habit 2r Morning stretch". The flags
// describe target cadence and are ignored here; only the name is kept.
var habitLabelRe = regexp.MustCompile(`^(?:[a-z0-9] )?habit (?:(?:[0-9]+p[0-9]+|[0-9]+r|d[0-9-]+) )+(.*)$`)

// Habit is one tracked habit from a habit provider.
type Habit struct {
	AccountID string `json:"account_id"`
	ItemID    string `json:"item_id"`
	Title     string `json:"title"`
}

// Key returns the habit's composite store address.
func (h Habit) Key() ItemKey {
	return ItemKey{AccountID: h.AccountID, ItemID: h.ItemID}
}

// ParseHabitLabel extracts the habit name from a provider attribute label.
// Labels that do not follow the habit convention report false.
func ParseHabitLabel(label string) (string, bool) {
	m := habitLabelRe.FindStringSubmatch(label)
	if m == nil {
		return "", false
	}
	return titleCase(m[1]), true
}

// titleCase capitalizes the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
