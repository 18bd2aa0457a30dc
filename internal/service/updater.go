package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/twpol/personalmissioncontrol/internal/domain/auth"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

const (
	// DefaultUpdateInterval is how often the updater sweeps all accounts.
	DefaultUpdateInterval = 5 * time.Minute

	// DefaultAccountTimeout bounds one account's provider fetches per sweep.
	DefaultAccountTimeout = 2 * time.Minute
)

// UpdaterSources holds the per-scheme provider clients the updater pulls
// from. A nil source disables that scheme's updates.
type UpdaterSources struct {
	TaskScheme string
	Tasks      ports.TaskSource

	HabitScheme string
	Habits      ports.HabitSource
}

// UpdaterOptions groups dependencies for Updater.
type UpdaterOptions struct {
	Accounts ports.AccountStore
	Items    ports.ItemStore
	Gate     *TokenGate
	Sources  UpdaterSources

	Interval       time.Duration
	AccountTimeout time.Duration
	Logger         *slog.Logger
}

// Updater periodically sweeps every stored account, refreshes its
// credentials through the token gate, and replaces the account's stored
// collections with fresh provider data. One account failing does not stop
// the sweep.
type Updater struct {
	accounts ports.AccountStore
	items    ports.ItemStore
	gate     *TokenGate
	sources  UpdaterSources

	interval       time.Duration
	accountTimeout time.Duration
	logger         *slog.Logger
}

// NewUpdater constructs a new Updater.
func NewUpdater(opts UpdaterOptions) (*Updater, error) {
	if opts.Accounts == nil {
		return nil, errors.New("account store is required")
	}
	if opts.Items == nil {
		return nil, errors.New("item store is required")
	}
	if opts.Gate == nil {
		return nil, errors.New("token gate is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultUpdateInterval
	}
	if opts.AccountTimeout <= 0 {
		opts.AccountTimeout = DefaultAccountTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Updater{
		accounts:       opts.Accounts,
		items:          opts.Items,
		gate:           opts.Gate,
		sources:        opts.Sources,
		interval:       opts.Interval,
		accountTimeout: opts.AccountTimeout,
		logger:         opts.Logger,
	}, nil
}

// Run sweeps immediately, then at every interval until the context is
// cancelled. Returns nil on graceful shutdown.
func (u *Updater) Run(ctx context.Context) error {
	u.logger.InfoContext(ctx, "starting updater", "interval", u.interval)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	if err := u.Sweep(ctx); err != nil {
		u.logger.ErrorContext(ctx, "update sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			u.logger.InfoContext(ctx, "updater stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := u.Sweep(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				u.logger.ErrorContext(ctx, "update sweep failed", "error", err)
			}
		}
	}
}

// Sweep updates every stored account once. Individual account failures are
// logged and skipped; the error reflects the listing only.
func (u *Updater) Sweep(ctx context.Context) error {
	accountIDs, err := u.accounts.List(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	for _, accountID := range accountIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := u.updateAccount(ctx, accountID); err != nil {
			u.logger.WarnContext(ctx, "account update failed",
				"account_id", accountID, "error", err)
		}
	}
	return nil
}

func (u *Updater) updateAccount(ctx context.Context, accountID string) error {
	ctx, cancel := context.WithTimeout(ctx, u.accountTimeout)
	defer cancel()

	scheme := domainauth.SchemeOf(accountID)
	var update func(context.Context, ports.Credentials) error
	switch {
	case u.sources.Tasks != nil && scheme == u.sources.TaskScheme:
		update = u.updateTasks
	case u.sources.Habits != nil && scheme == u.sources.HabitScheme:
		update = u.updateHabits
	default:
		return nil
	}

	// A sweep-scoped context so each account's refresh reads fresh state.
	accounts := NewAccountContext(u.accounts, domainauth.Principal{})
	creds, ok := u.gate.CredentialsForAccount(ctx, accounts, accountID)
	if !ok {
		return errors.New("credentials unavailable")
	}
	return update(ctx, creds)
}

func (u *Updater) updateTasks(ctx context.Context, creds ports.Credentials) error {
	lists, err := u.sources.Tasks.TaskLists(ctx, creds)
	if err != nil {
		return fmt.Errorf("fetch task lists: %w", err)
	}
	stored, err := encodeItems(lists)
	if err != nil {
		return fmt.Errorf("encode task lists: %w", err)
	}
	if err := u.items.ReplaceCollection(ctx, ports.KindTaskList, creds.AccountID, "", stored); err != nil {
		return fmt.Errorf("store task lists: %w", err)
	}

	for _, list := range lists {
		tasks, err := u.sources.Tasks.Tasks(ctx, creds, list.ItemID)
		if err != nil {
			return fmt.Errorf("fetch tasks for list %s: %w", list.ItemID, err)
		}
		storedTasks, err := encodeItems(tasks)
		if err != nil {
			return fmt.Errorf("encode tasks for list %s: %w", list.ItemID, err)
		}
		if err := u.items.ReplaceCollection(ctx, ports.KindTask, creds.AccountID, list.ItemID, storedTasks); err != nil {
			return fmt.Errorf("store tasks for list %s: %w", list.ItemID, err)
		}
	}
	return nil
}

func (u *Updater) updateHabits(ctx context.Context, creds ports.Credentials) error {
	habits, err := u.sources.Habits.Habits(ctx, creds)
	if err != nil {
		return fmt.Errorf("fetch habits: %w", err)
	}
	stored, err := encodeItems(habits)
	if err != nil {
		return fmt.Errorf("encode habits: %w", err)
	}
	if err := u.items.ReplaceCollection(ctx, ports.KindHabit, creds.AccountID, "", stored); err != nil {
		return fmt.Errorf("store habits: %w", err)
	}
	return nil
}
