package config

import (
	"fmt"
	"os"

	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Chain.Node.Finalize(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("struct validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = constant.DefaultRequestTimeout
	}
	if c.Client.RangePageSize == 0 {
		c.Client.RangePageSize = constant.DefaultRangePageSize
	}
	if c.Client.RangeParallel == 0 {
		c.Client.RangeParallel = constant.DefaultRangeParallel
	}

	idx := &c.Indexer
	if idx.BatchSize == 0 {
		idx.BatchSize = constant.DefaultBatchSize
	}
	if idx.ExecuteSize == 0 {
		idx.ExecuteSize = constant.DefaultExecuteSize
	}
	if idx.MaxRetries == 0 {
		idx.MaxRetries = constant.DefaultMaxRetries
	}
	if idx.RetryDelay <= 0 {
		idx.RetryDelay = constant.DefaultRetryDelay
	}
	if idx.PollInterval <= 0 {
		idx.PollInterval = constant.DefaultPollInterval
	}
	if idx.FollowErrDelay <= 0 {
		idx.FollowErrDelay = constant.DefaultFollowErrDelay
	}
	if idx.TestMode && idx.TestBlockLimit == 0 {
		idx.TestBlockLimit = constant.DefaultTestBlockLimit
	}

	if c.Nats.SubjectPrefix == "" {
		c.Nats.SubjectPrefix = "indexer.payments"
	}
	if c.Nats.Stream == "" {
		c.Nats.Stream = "PAYMENTS"
	}
	if c.Metrics.Enabled && c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
