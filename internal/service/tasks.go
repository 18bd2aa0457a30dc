package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// TaskServiceOptions groups dependencies for TaskService.
type TaskServiceOptions struct {
	Items  ports.ItemStore
	Logger *slog.Logger
}

// TaskService reads stored to-do data across every account attached to the
// session. The store holds whatever the background updater last fetched, so
// reads never hit a provider.
type TaskService struct {
	items  ports.ItemStore
	logger *slog.Logger
}

// NewTaskService constructs a new TaskService.
func NewTaskService(opts TaskServiceOptions) *TaskService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &TaskService{
		items:  opts.Items,
		logger: opts.Logger,
	}
}

// Lists returns the task lists of every signed-in account, special lists
// first, the rest by name.
func (s *TaskService) Lists(ctx context.Context, accounts *AccountContext) ([]model.TaskList, error) {
	lists := []model.TaskList{}
	for _, accountID := range accounts.Principal().AccountIDs() {
		stored, err := s.items.GetCollection(ctx, ports.KindTaskList, accountID, "")
		if err != nil {
			return nil, fmt.Errorf("load task lists for %s: %w", accountID, err)
		}
		decoded, err := decodeItems[model.TaskList](stored)
		if err != nil {
			return nil, fmt.Errorf("decode task lists for %s: %w", accountID, err)
		}
		lists = append(lists, decoded...)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].SortKey() < lists[j].SortKey() })
	return lists, nil
}

// Tasks returns the tasks of one list, searched across the session's
// accounts, incomplete and important tasks first.
func (s *TaskService) Tasks(ctx context.Context, accounts *AccountContext, listID string) ([]model.Task, error) {
	tasks := []model.Task{}
	for _, accountID := range accounts.Principal().AccountIDs() {
		stored, err := s.items.GetCollection(ctx, ports.KindTask, accountID, listID)
		if err != nil {
			return nil, fmt.Errorf("load tasks for %s: %w", accountID, err)
		}
		decoded, err := decodeItems[model.Task](stored)
		if err != nil {
			return nil, fmt.Errorf("decode tasks for %s: %w", accountID, err)
		}
		tasks = append(tasks, decoded...)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].SortKey() < tasks[j].SortKey() })
	return tasks, nil
}

// AllTasks returns every stored task for the session's accounts across all
// lists, in store order.
func (s *TaskService) AllTasks(ctx context.Context, accounts *AccountContext) ([]model.Task, error) {
	tasks := []model.Task{}
	for _, accountID := range accounts.Principal().AccountIDs() {
		stored, err := s.items.GetAccountItems(ctx, ports.KindTask, accountID)
		if err != nil {
			return nil, fmt.Errorf("load tasks for %s: %w", accountID, err)
		}
		decoded, err := decodeItems[model.Task](stored)
		if err != nil {
			return nil, fmt.Errorf("decode tasks for %s: %w", accountID, err)
		}
		tasks = append(tasks, decoded...)
	}
	return tasks, nil
}

// decodeItems unmarshals a stored collection into its model type.
func decodeItems[T any](stored []ports.StoredItem) ([]T, error) {
	out := make([]T, 0, len(stored))
	for _, item := range stored {
		var v T
		if err := json.Unmarshal(item.Data, &v); err != nil {
			return nil, fmt.Errorf("item %s: %w", item.Key.String(), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// encodeItems marshals model values into stored items keyed by Key().
func encodeItems[T model.Item](values []T) ([]ports.StoredItem, error) {
	out := make([]ports.StoredItem, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", v.Key().String(), err)
		}
		out = append(out, ports.StoredItem{Key: v.Key(), Data: data})
	}
	return out, nil
}
