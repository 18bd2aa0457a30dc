package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twpol/personalmissioncontrol/internal/domain/model"
	"github.com/twpol/personalmissioncontrol/internal/ports"
)

const (
	// DefaultFolderTTL is how long fetched mail folder counts stay cached.
	DefaultFolderTTL = 5 * time.Minute

	// DefaultFillTimeout bounds how long a request waits for a concurrent
	// cache fill before giving up.
	DefaultFillTimeout = 30 * time.Second
)

// EmailServiceOptions groups dependencies for EmailService.
type EmailServiceOptions struct {
	Cache  ports.Cache
	Source ports.EmailSource
	Gate   *TokenGate

	// Scheme is the provider scheme whose account supplies mail data.
	Scheme string

	TTL         time.Duration
	FillTimeout time.Duration
	Logger      *slog.Logger
}

// EmailService reports mail folder summaries live from the provider, cached
// briefly so a dashboard refresh does not hammer the mail API. Concurrent
// requests for the same account share one upstream fetch.
type EmailService struct {
	cache       ports.Cache
	source      ports.EmailSource
	gate        *TokenGate
	scheme      string
	ttl         time.Duration
	fillTimeout time.Duration
	logger      *slog.Logger
}

// NewEmailService constructs a new EmailService.
func NewEmailService(opts EmailServiceOptions) *EmailService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultFolderTTL
	}
	if opts.FillTimeout <= 0 {
		opts.FillTimeout = DefaultFillTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &EmailService{
		cache:       opts.Cache,
		source:      opts.Source,
		gate:        opts.Gate,
		scheme:      opts.Scheme,
		ttl:         opts.TTL,
		fillTimeout: opts.FillTimeout,
		logger:      opts.Logger,
	}
}

// Folders returns the session's mail folder summaries. A session with no
// usable account for the mail scheme gets an empty result, not an error.
func (s *EmailService) Folders(ctx context.Context, accounts *AccountContext) ([]model.EmailFolder, error) {
	creds, ok := s.gate.Credentials(ctx, accounts, s.scheme)
	if !ok {
		return []model.EmailFolder{}, nil
	}

	cacheKey := "email:folders:" + creds.AccountID
	data, err := s.cache.GetOrFill(ctx, cacheKey, s.ttl, s.fillTimeout, func(ctx context.Context) ([]byte, error) {
		folders, err := s.source.MailFolders(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("fetch mail folders: %w", err)
		}
		return json.Marshal(folders)
	})
	if err != nil {
		return nil, fmt.Errorf("mail folders for %s: %w", creds.AccountID, err)
	}

	var folders []model.EmailFolder
	if err := json.Unmarshal(data, &folders); err != nil {
		return nil, fmt.Errorf("decode cached mail folders: %w", err)
	}
	return folders, nil
}
