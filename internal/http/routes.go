package httpx

import (
	"log/slog"
	"net/http"

	"github.com/twpol/personalmissioncontrol/internal/ports"
	"github.com/twpol/personalmissioncontrol/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	SignIn    *service.SignInService
	Tasks     *service.TaskService
	Email     *service.EmailService
	Habits    *service.HabitService
	Accounts  ports.AccountStore
	Providers ProviderSource

	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	if services.Logger == nil {
		services.Logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Providers:    services.Providers,
		SignIn:       services.SignIn,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	apiHandlers := &APIHandlers{
		Tasks:  services.Tasks,
		Email:  services.Email,
		Habits: services.Habits,
	}

	mux.Handle("GET /auth/{scheme}/login", http.HandlerFunc(authHandlers.Login))
	mux.Handle("GET /auth/{scheme}/callback", http.HandlerFunc(authHandlers.Callback))
	mux.Handle("POST /auth/{scheme}/logout", http.HandlerFunc(authHandlers.Logout))
	mux.Handle("GET /auth/status", http.HandlerFunc(authHandlers.Status))

	mux.Handle("GET /api/accounts", http.HandlerFunc(apiHandlers.Accounts))
	mux.Handle("GET /api/tasks", http.HandlerFunc(apiHandlers.TaskLists))
	mux.Handle("GET /api/tasks/{list}", http.HandlerFunc(apiHandlers.TasksForList))
	mux.Handle("GET /api/email/folders", http.HandlerFunc(apiHandlers.EmailFolders))
	mux.Handle("GET /api/habits", http.HandlerFunc(apiHandlers.HabitList))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	session := Session(SessionOptions{
		SignIn:       services.SignIn,
		Accounts:     services.Accounts,
		CookieDomain: services.CookieDomain,
	})

	var handler http.Handler = mux
	handler = session(handler)
	handler = Logging(services.Logger)(handler)
	handler = Recover(services.Logger)(handler)
	return handler
}
