package secrets

import (
	"context"
	"os"
	"strings"

	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
)

// EnvStore implements the SecretStore port from environment variables, for
// local development only. Secret names map to env vars as
// SECRET_<NAME-WITH-DASHES-AS-UNDERSCORES>.
type EnvStore struct {
	prefix string
}

var _ ports.SecretStore = (*EnvStore)(nil)

// NewEnvStore creates an environment-backed secret store
func NewEnvStore() *EnvStore {
	return &EnvStore{prefix: "SECRET_"}
}

// GetSecret reads the secret from the environment
func (s *EnvStore) GetSecret(ctx context.Context, name string) (string, error) {
	key := s.prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	value := os.Getenv(key)
	if value == "" {
		return "", domain.ErrSecretNotFound.WithDetail("name", name).WithDetail("env_var", key)
	}
	return value, nil
}
