package rpc

import "github.com/fystack/payment-indexer/pkg/common/config"

type AuthType string

const (
	AuthTypeHeader AuthType = "header"
	AuthTypeQuery  AuthType = "query"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Type  AuthType `json:"type"  yaml:"type"`
	Key   string   `json:"key"   yaml:"key"`
	Value string   `json:"value" yaml:"value"`
}

// NodeToAuthConfig converts a finalized config.Node to an AuthConfig, or nil when
// the node needs no authentication.
func NodeToAuthConfig(node config.Node) *AuthConfig {
	if node.Auth.Type == "" || node.Auth.Key == "" {
		return nil
	}
	return &AuthConfig{
		Type:  AuthType(node.Auth.Type),
		Key:   node.Auth.Key,
		Value: node.Auth.Value,
	}
}
