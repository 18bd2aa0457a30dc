package ports

import (
	"context"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
)

// Credentials is a short-lived read of one account's live token material,
// sufficient for making authenticated provider calls.
type Credentials struct {
	AccountID   string
	TokenType   string
	AccessToken string
}

// TaskSource fetches to-do data from a remote provider.
type TaskSource interface {
	TaskLists(ctx context.Context, creds Credentials) ([]model.TaskList, error)
	Tasks(ctx context.Context, creds Credentials, listID string) ([]model.Task, error)
}

// EmailSource fetches mail folder summaries from a remote provider.
type EmailSource interface {
	MailFolders(ctx context.Context, creds Credentials) ([]model.EmailFolder, error)
}

// HabitSource fetches tracked habits from a remote provider.
type HabitSource interface {
	Habits(ctx context.Context, creds Credentials) ([]model.Habit, error)
}
