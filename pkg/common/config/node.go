package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type Node struct {
	URL       string     `yaml:"url"         validate:"required,url"`
	ApiKey    string     `yaml:"api_key"`
	ApiKeyEnv string     `yaml:"api_key_env"`
	Auth      AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	Type  string `yaml:"type"  validate:"omitempty,oneof=header query"`
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Finalize fills the API key, substitutes ${VAR} placeholders and checks the URL.
func (n *Node) Finalize() error {
	key := n.ApiKey
	if key == "" && n.ApiKeyEnv != "" {
		key = os.Getenv(n.ApiKeyEnv)
	}

	n.URL = substituteEnvVars(substituteKey(n.URL, key))
	n.Auth.Value = substituteEnvVars(substituteKey(n.Auth.Value, key))

	if n.URL == "" {
		return nil
	}
	u, err := url.Parse(n.URL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("invalid node url: %q", n.URL)
	}
	return nil
}

// helpers
func substituteKey(s, key string) string {
	if s == "" || key == "" {
		return s
	}
	return strings.ReplaceAll(s, "${API_KEY}", key)
}

func substituteEnvVars(s string) string {
	if s == "" {
		return s
	}
	for {
		start := strings.Index(s, "${")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "}")
		if end == -1 {
			break
		}
		end += start
		varName := s[start+2 : end]
		envValue := os.Getenv(varName)
		s = strings.ReplaceAll(s, "${"+varName+"}", envValue)
	}
	return s
}
