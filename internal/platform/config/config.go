package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the ringbridge services. Values come from
// environment variables, optionally seeded by a config.yaml next to the binary.
type Config struct {
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	NATSUrl     string `mapstructure:"NATS_URL"`

	// DefaultRegion is the ISO region used when a carrier hands us a national
	// format number without a country prefix (e.g. "US").
	DefaultRegion string `mapstructure:"DEFAULT_REGION"`

	WebhookServicePort        int `mapstructure:"WEBHOOK_SERVICE_PORT"`
	WebhookServiceMetricsPort int `mapstructure:"WEBHOOK_SERVICE_METRICS_PORT"`

	BroadcastServiceMetricsPort int `mapstructure:"BROADCAST_SERVICE_METRICS_PORT"`
	BroadcastWorkerCount        int `mapstructure:"BROADCAST_WORKER_COUNT"`

	// Carrier credentials and owned-number inventory. A carrier with no
	// credentials configured is simply not registered at startup.
	TwilioAccountSID   string   `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string   `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioVoiceNumbers []string `mapstructure:"TWILIO_VOICE_NUMBERS"`
	TwilioSMSNumbers   []string `mapstructure:"TWILIO_SMS_NUMBERS"`

	NexmoAPIKey       string   `mapstructure:"NEXMO_API_KEY"`
	NexmoAPISecret    string   `mapstructure:"NEXMO_API_SECRET"`
	NexmoVoiceNumbers []string `mapstructure:"NEXMO_VOICE_NUMBERS"`
	NexmoSMSNumbers   []string `mapstructure:"NEXMO_SMS_NUMBERS"`

	KooKooAPIKey       string   `mapstructure:"KOOKOO_API_KEY"`
	KooKooVoiceNumbers []string `mapstructure:"KOOKOO_VOICE_NUMBERS"`

	TropoMessagingToken string   `mapstructure:"TROPO_MESSAGING_TOKEN"`
	TropoVoiceNumbers   []string `mapstructure:"TROPO_VOICE_NUMBERS"`
	TropoSMSNumbers     []string `mapstructure:"TROPO_SMS_NUMBERS"`

	// Development-only logging adapter. When enabled it is registered as the
	// default carrier with this fixed inventory.
	LoggingAdapterEnabled bool     `mapstructure:"LOGGING_ADAPTER_ENABLED"`
	LoggingAdapterNumbers []string `mapstructure:"LOGGING_ADAPTER_NUMBERS"`

	// DefaultProvider is the routing key of the adapter used for outbound
	// sends with no carrier specified. Last default registered wins.
	DefaultProvider string `mapstructure:"DEFAULT_PROVIDER"`
}

// Load reads configuration for the named service. serviceName is used only for
// error context; all services share one flat configuration namespace.
func Load(serviceName string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_REGION", "US")
	v.SetDefault("WEBHOOK_SERVICE_PORT", 8080)
	v.SetDefault("WEBHOOK_SERVICE_METRICS_PORT", 9090)
	v.SetDefault("BROADCAST_SERVICE_METRICS_PORT", 9091)
	v.SetDefault("BROADCAST_WORKER_COUNT", 8)
	v.SetDefault("NATS_URL", "nats://localhost:4222")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file for %s: %w", serviceName, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling config for %s: %w", serviceName, err)
	}

	return &cfg, nil
}
