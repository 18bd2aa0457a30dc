package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/twpol/personalmissioncontrol/config"
	"github.com/twpol/personalmissioncontrol/internal/data/cryptoutil"
)

// BuildEncryptor returns the token encryptor selected by configuration.
// A 32-byte TOKEN_ENCRYPTION_KEY enables AES-256-GCM; an empty key means
// tokens are stored as plaintext and nil is returned. Any other key length
// is a configuration error rather than a silent fallback.
func BuildEncryptor(cfg *config.AppConfig, logger *slog.Logger) (cryptoutil.Encryptor, error) {
	key := cfg.Auth.TokenEncryptionKey
	if key == "" {
		logger.Warn("TOKEN_ENCRYPTION_KEY not set, account tokens stored unencrypted")
		return nil, nil
	}
	enc, err := cryptoutil.NewAESGCMEncryptor([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("token encryption key: %w", err)
	}
	return enc, nil
}
