package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/tmcgann/paymentsense-service/internal/domain"
	"github.com/tmcgann/paymentsense-service/internal/domain/ports"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for the HashiCorp Vault secret store
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Authentication method: "token" or "approle"
	AuthMethod string

	// Token for token authentication
	Token string

	// AppRole credentials (if using AppRole auth)
	RoleID   string
	SecretID string

	// KV secrets engine mount path (default: "secret")
	MountPath string

	// Path prefix under the mount for this service's secrets
	PathPrefix string

	// Cache TTL for retrieved secrets
	CacheTTL time.Duration
}

// DefaultVaultConfig returns default configuration for the Vault store
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:    address,
		AuthMethod: "token",
		MountPath:  "secret",
		PathPrefix: "paymentsense",
		CacheTTL:   5 * time.Minute,
	}
}

// VaultStore implements the SecretStore port against a KV v2 engine
type VaultStore struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

var _ ports.SecretStore = (*VaultStore)(nil)

// NewVaultStore creates and authenticates a Vault-backed secret store
func NewVaultStore(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (*VaultStore, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if err := authenticate(client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault secret store initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
	)

	return &VaultStore{
		client: client,
		config: cfg,
		logger: logger,
		cache:  make(map[string]cachedSecret),
	}, nil
}

func authenticate(client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		data := map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		}
		resp, err := client.Logical().Write("auth/approle/login", data)
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp.Auth == nil {
			return fmt.Errorf("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret retrieves a secret by name from the KV v2 engine. Values are
// cached for the configured TTL.
func (s *VaultStore) GetSecret(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	if entry, ok := s.cache[name]; ok && time.Now().Before(entry.expiresAt) {
		s.mu.Unlock()
		return entry.value, nil
	}
	s.mu.Unlock()

	fullPath := fmt.Sprintf("%s/data/%s/%s", s.config.MountPath, s.config.PathPrefix, name)

	secret, err := s.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		s.logger.Error("Failed to retrieve secret from Vault",
			zap.String("name", name),
			zap.Error(err),
		)
		return "", domain.WrapError(domain.ErrorCodeSecretNotFound, "read secret from Vault", err)
	}
	if secret == nil {
		return "", domain.ErrSecretNotFound.WithDetail("name", name)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", domain.ErrSecretNotFound.WithDetail("name", name)
	}

	value, ok := data["value"].(string)
	if !ok || value == "" {
		return "", domain.ErrSecretNotFound.WithDetail("name", name)
	}

	s.mu.Lock()
	s.cache[name] = cachedSecret{value: value, expiresAt: time.Now().Add(s.config.CacheTTL)}
	s.mu.Unlock()

	return value, nil
}
