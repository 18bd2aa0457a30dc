package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/twpol/personalmissioncontrol/config"
	"github.com/twpol/personalmissioncontrol/internal/adapters/exist"
	"github.com/twpol/personalmissioncontrol/internal/adapters/msgraph"
	"github.com/twpol/personalmissioncontrol/internal/adapters/oauth"
	redisadapter "github.com/twpol/personalmissioncontrol/internal/adapters/redis"
	"github.com/twpol/personalmissioncontrol/internal/data"
	"github.com/twpol/personalmissioncontrol/internal/ports"
	"github.com/twpol/personalmissioncontrol/internal/service"
)

// ServiceContainer holds all application services plus the stores shared
// between the HTTP surface and the background updater.
type ServiceContainer struct {
	SignIn  *service.SignInService
	Gate    *service.TokenGate
	Tasks   *service.TaskService
	Email   *service.EmailService
	Habits  *service.HabitService
	Updater *service.Updater

	Accounts  ports.AccountStore
	Providers *oauth.Registry
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildServices wires stores, adapters, and services together.
func BuildServices(deps ServiceDeps) (*ServiceContainer, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if deps.RedisClient == nil {
		return nil, errors.New("redis client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	providers, err := BuildProviders(deps.Config, logger)
	if err != nil {
		return nil, fmt.Errorf("build auth providers: %w", err)
	}

	encryptor, err := BuildEncryptor(deps.Config, logger)
	if err != nil {
		return nil, err
	}
	accounts := redisadapter.NewAccountStore(deps.RedisClient)
	if encryptor != nil {
		accounts = redisadapter.NewAccountStoreWithEncryptor(deps.RedisClient, encryptor)
	}
	principals := redisadapter.NewPrincipalStore(deps.RedisClient, deps.Config.Auth.SessionTTL)
	items := data.NewItemRepo(deps.DB)
	cache := data.NewCacheRepo(deps.RedisClient)

	graph := msgraph.NewClient(msgraph.ClientOptions{})
	existClient := exist.NewClient(exist.ClientOptions{})

	signIn := service.NewSignInService(service.SignInServiceOptions{
		Principals: principals,
		Logger:     logger,
	})
	gate := service.NewTokenGate(service.TokenGateOptions{
		Endpoints: TokenEndpoints(providers),
		Margin:    deps.Config.Auth.RefreshMargin,
		Logger:    logger,
	})

	email := service.NewEmailService(service.EmailServiceOptions{
		Cache:       cache,
		Source:      graph,
		Gate:        gate,
		Scheme:      "microsoft",
		TTL:         deps.Config.Cache.ProviderTTL,
		FillTimeout: deps.Config.Cache.FillTimeout,
		Logger:      logger,
	})

	updater, err := service.NewUpdater(service.UpdaterOptions{
		Accounts: accounts,
		Items:    items,
		Gate:     gate,
		Sources: service.UpdaterSources{
			TaskScheme:  "microsoft",
			Tasks:       graph,
			HabitScheme: "exist",
			Habits:      existClient,
		},
		Interval:       deps.Config.Updater.Interval,
		AccountTimeout: deps.Config.Updater.AccountTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build updater: %w", err)
	}

	return &ServiceContainer{
		SignIn:    signIn,
		Gate:      gate,
		Tasks:     service.NewTaskService(service.TaskServiceOptions{Items: items, Logger: logger}),
		Email:     email,
		Habits:    service.NewHabitService(service.HabitServiceOptions{Items: items, Logger: logger}),
		Updater:   updater,
		Accounts:  accounts,
		Providers: providers,
	}, nil
}
