package config

import (
	"time"
)

type Env string

const (
	DevEnv  Env = "dev"
	ProdEnv Env = "prod"
	StgEnv  Env = "stag"
)

type Config struct {
	Environment Env           `yaml:"env"     validate:"required,oneof=dev prod stag"`
	Chain       ChainConfig   `yaml:"chain"   validate:"required"`
	Client      ClientConfig  `yaml:"client"`
	Indexer     IndexerConfig `yaml:"indexer"`
	KVStore     KVSConfig     `yaml:"kvstore"`
	Nats        NatsConfig    `yaml:"nats"`
	Metrics     MetricsConfig `yaml:"metrics"`
	Log         LogConfig     `yaml:"log"`
}

type ChainConfig struct {
	Name          string `yaml:"name"           validate:"required"`
	AddressPrefix string `yaml:"address_prefix" validate:"required"`
	Node          Node   `yaml:"node"           validate:"required"`
}

type ClientConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RPS           int           `yaml:"rps"            validate:"min=0"`
	Burst         int           `yaml:"burst"          validate:"min=0"`
	RangePageSize int           `yaml:"range_page_size" validate:"min=0"`
	RangeParallel int           `yaml:"range_parallel"  validate:"min=0"`
}

type IndexerConfig struct {
	TestMode       bool          `yaml:"test_mode"`
	TestBlockLimit uint64        `yaml:"test_block_limit"`
	BatchSize      uint64        `yaml:"batch_size"`
	ExecuteSize    int           `yaml:"execute_size"   validate:"min=0"`
	MaxRetries     int           `yaml:"max_retries"    validate:"min=0"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	FollowErrDelay time.Duration `yaml:"follow_error_delay"`
}

type KVSConfig struct {
	Badger BadgerConfig `yaml:"badger"`
}

type BadgerConfig struct {
	Directory string `yaml:"directory" validate:"required"`
	Prefix    string `yaml:"prefix"`
}

type NatsConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"            validate:"required_if=Enabled true"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	Stream        string        `yaml:"stream"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	TLS           NatsTLSConfig `yaml:"tls"`
}

type NatsTLSConfig struct {
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
	CACert     string `yaml:"ca_cert"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"min=0,max=65535"`
}

type LogConfig struct {
	Level   string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	NoColor bool   `yaml:"no_color"`
}
