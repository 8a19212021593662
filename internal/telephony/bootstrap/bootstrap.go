package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/ringbridge/ringbridge/internal/platform/config"
	"github.com/ringbridge/ringbridge/internal/telephony/dispatch"
	"github.com/ringbridge/ringbridge/internal/telephony/provider"
)

// BuildDispatcher registers every carrier adapter with credentials present in
// the configuration. Registration order is the routing precedence for
// broadcast fan-out, so the order below is deliberate. A carrier keyed as
// cfg.DefaultProvider becomes the default; with no explicit default the
// logging adapter takes it when enabled, otherwise the first registered
// carrier.
func BuildDispatcher(cfg *config.Config, logger *slog.Logger) (*dispatch.Dispatcher, error) {
	d := dispatch.New(logger)
	d.SetBroadcastWorkers(cfg.BroadcastWorkerCount)

	register := func(key string, a provider.Adapter) error {
		isDefault := cfg.DefaultProvider == key
		if err := d.Register(key, a, isDefault); err != nil {
			return fmt.Errorf("registering %s adapter: %w", key, err)
		}
		return nil
	}

	registered := 0

	if cfg.TwilioAccountSID != "" {
		inv := provider.Inventory{Voice: cfg.TwilioVoiceNumbers, SMS: cfg.TwilioSMSNumbers}
		a := provider.NewTwilioAdapter(logger, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.DefaultRegion, inv, nil)
		if err := register("twilio", a); err != nil {
			return nil, err
		}
		registered++
	}

	if cfg.NexmoAPIKey != "" {
		inv := provider.Inventory{Voice: cfg.NexmoVoiceNumbers, SMS: cfg.NexmoSMSNumbers}
		a := provider.NewNexmoAdapter(logger, cfg.NexmoAPIKey, cfg.NexmoAPISecret, cfg.DefaultRegion, inv, nil)
		if err := register("nexmo", a); err != nil {
			return nil, err
		}
		registered++
	}

	if cfg.KooKooAPIKey != "" {
		inv := provider.Inventory{Voice: cfg.KooKooVoiceNumbers}
		a := provider.NewKooKooAdapter(logger, cfg.KooKooAPIKey, cfg.DefaultRegion, inv, nil)
		if err := register("kookoo", a); err != nil {
			return nil, err
		}
		registered++
	}

	if cfg.TropoMessagingToken != "" {
		inv := provider.Inventory{Voice: cfg.TropoVoiceNumbers, SMS: cfg.TropoSMSNumbers}
		a := provider.NewTropoAdapter(logger, cfg.TropoMessagingToken, cfg.DefaultRegion, inv, nil)
		if err := register("tropo", a); err != nil {
			return nil, err
		}
		registered++
	}

	if cfg.LoggingAdapterEnabled {
		a := provider.NewLoggingAdapter(logger, cfg.DefaultRegion, cfg.LoggingAdapterNumbers)
		isDefault := cfg.DefaultProvider == "logging" || cfg.DefaultProvider == ""
		if err := d.Register("logging", a, isDefault); err != nil {
			return nil, fmt.Errorf("registering logging adapter: %w", err)
		}
		registered++
	}

	if registered == 0 {
		return nil, fmt.Errorf("no telephony providers configured")
	}

	// Guarantee a default so outbound sends with no carrier specified work.
	if _, err := d.Default(); err != nil {
		if cfg.DefaultProvider != "" {
			return nil, fmt.Errorf("configured default provider %q is not registered", cfg.DefaultProvider)
		}
		return nil, fmt.Errorf("no default telephony provider; set DEFAULT_PROVIDER")
	}

	return d, nil
}
