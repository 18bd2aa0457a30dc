package httpx

import (
	"context"

	"github.com/twpol/personalmissioncontrol/internal/service"
)

type sessionIDKey struct{}
type accountContextKey struct{}

// SetSessionInContext stores the session id in the context.
func SetSessionInContext(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionIDFromContext returns the request's session id, if any.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey{}).(string)
	return id, ok && id != ""
}

// SetAccountsInContext stores the session's account context in the context.
func SetAccountsInContext(ctx context.Context, accounts *service.AccountContext) context.Context {
	return context.WithValue(ctx, accountContextKey{}, accounts)
}

// AccountsFromContext returns the session's account context, if any.
func AccountsFromContext(ctx context.Context) (*service.AccountContext, bool) {
	accounts, ok := ctx.Value(accountContextKey{}).(*service.AccountContext)
	return accounts, ok && accounts != nil
}
