// Package config loads the service configuration from YAML or JSON with
// CQ_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/chargeq/chargeq/core/metrics"
	"github.com/chargeq/chargeq/infra/mqtt"
)

type Config struct {
	Chargers ChargersConfig `json:"chargers"`
	Charging ChargingConfig `json:"charging"`
	Store    StoreConfig    `json:"store"`
	Cache    CacheConfig    `json:"cache"`
	MQTT     MQTTConfig     `json:"mqtt"`
	Slack    SlackConfig    `json:"slack"`
	Metrics  metrics.Config `json:"metrics"`
	API      APIConfig      `json:"api"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides. The callback emits dotted keys, so
	// the provider must unflatten on "." rather than the raw "__" separator.
	if err := k.Load(env.Provider("CQ_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "cq_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Chargers.SetDefaults()
	cfg.Charging.SetDefaults()
	cfg.Store.SetDefaults()
	cfg.Cache.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Chargers.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Charging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MQTTConfig wraps the client settings with an enable switch and the topic
// prefix used by the change bridge.
type MQTTConfig struct {
	Enabled     bool   `json:"enabled"`
	TopicPrefix string `json:"topic_prefix"`
	mqtt.Config `json:",squash"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "chargeq"
	}
	if c.ClientID == "" {
		c.ClientID = "chargeq"
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Enabled && c.Broker == "" {
		return fmt.Errorf("mqtt broker is required when enabled")
	}
	return nil
}

// SlackConfig holds the webhook settings. An empty URL disables delivery.
type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
}
