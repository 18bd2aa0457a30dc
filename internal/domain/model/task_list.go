//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// TaskListSpecial marks well-known task lists that sort ahead of the rest.
type TaskListSpecial string

const (
	TaskListSpecialNone    TaskListSpecial = ""
	TaskListSpecialDefault TaskListSpecial = "default"
	TaskListSpecialEmails  TaskListSpecial = "emails"
)

// TaskList is one to-do list fetched from a task provider.
type TaskList struct {
	AccountID string          `json:"account_id"`
	ItemID    string          `json:"item_id"`
	Emoji     string          `json:"emoji,omitempty"`
	Name      string          `json:"name"`
	Special   TaskListSpecial `json:"special,omitempty"`
}

// Key returns the list's composite store address.
func (l TaskList) Key() ItemKey {
	return ItemKey{AccountID: l.AccountID, ItemID: l.ItemID}
}

// SortKey orders lists: the default list first, the flagged-emails list
// second, everything else by name.
func (l TaskList) SortKey() string {
	switch l.Special {
	case TaskListSpecialDefault:
		return "01 "
	case TaskListSpecialEmails:
		return "02 "
	default:
		return "99 " + l.Name
	}
}
