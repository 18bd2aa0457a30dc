//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"fmt"
	"strings"
	"time"
)

// Task is one to-do item fetched from a task provider.
type Task struct {
	AccountID string     `json:"account_id"`
	ListID    string     `json:"list_id"`
	ItemID    string     `json:"item_id"`
	Title     string     `json:"title"`
	Important bool       `json:"important"`
	Created   time.Time  `json:"created"`
	Completed *time.Time `json:"completed,omitempty"`
}

// Key returns the task's composite store address.
func (t Task) Key() ItemKey {
	return ItemKey{AccountID: t.AccountID, ParentID: t.ListID, ItemID: t.ItemID}
}

// IsCompleted reports whether the task has a completion timestamp.
func (t Task) IsCompleted() bool { return t.Completed != nil }

// EarliestDate is the earlier of the creation and completion timestamps,
// used for date-bucketed statistics.
func (t Task) EarliestDate() time.Time {
	if t.Completed != nil && t.Completed.Before(t.Created) {
		return *t.Completed
	}
	return t.Created
}

// SortKey orders tasks: uncompleted before completed, important before
// unimportant, then by title.
func (t Task) SortKey() string {
	completed, important := 1, 2
	if t.IsCompleted() {
		completed = 2
	}
	if t.Important {
		important = 1
	}
	return fmt.Sprintf("%d%d %s", completed, important, t.Title)
}

// Tag returns the leading "#tag" word of the title, if any. Tasks tagged this
// way group related items under one heading.
func (t Task) Tag() string {
	words := strings.Fields(t.Title)
	if len(words) > 0 && strings.HasPrefix(words[0], "#") {
		return words[0]
	}
	return ""
}

// Tags returns all non-leading "#tag" words of the title.
func (t Task) Tags() []string {
	words := strings.Fields(t.Title)
	var tags []string
	for i, w := range words {
		if i > 0 && strings.HasPrefix(w, "#") {
			tags = append(tags, w)
		}
	}
	return tags
}
