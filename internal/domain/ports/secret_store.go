package ports

import "context"

// Secret names used by the service
const (
	SecretGatewayPassword = "gateway-password"
	SecretPreSharedKey    = "gateway-preshared-key"
)

// SecretStore is the outbound port for merchant secrets. The gateway
// password and the hash pre-shared key never appear in env-visible config.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}
