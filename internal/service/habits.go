package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

// HabitServiceOptions groups dependencies for HabitService.
type HabitServiceOptions struct {
	Items  ports.ItemStore
	Logger *slog.Logger
}

// HabitService reads stored habits across the session's accounts.
type HabitService struct {
	items  ports.ItemStore
	logger *slog.Logger
}

// NewHabitService constructs a new HabitService.
func NewHabitService(opts HabitServiceOptions) *HabitService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &HabitService{
		items:  opts.Items,
		logger: opts.Logger,
	}
}

// Habits returns every signed-in account's habits, ordered by title.
func (s *HabitService) Habits(ctx context.Context, accounts *AccountContext) ([]model.Habit, error) {
	habits := []model.Habit{}
	for _, accountID := range accounts.Principal().AccountIDs() {
		stored, err := s.items.GetCollection(ctx, ports.KindHabit, accountID, "")
		if err != nil {
			return nil, fmt.Errorf("load habits for %s: %w", accountID, err)
		}
		decoded, err := decodeItems[model.Habit](stored)
		if err != nil {
			return nil, fmt.Errorf("decode habits for %s: %w", accountID, err)
		}
		habits = append(habits, decoded...)
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].Title < habits[j].Title })
	return habits, nil
}
