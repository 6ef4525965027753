package rsvp

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads reader configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	// Timing
	if viper.IsSet("wpm") {
		cfg.WPM = viper.GetInt("wpm")
	}
	if viper.IsSet("frame_interval") {
		d, err := time.ParseDuration(viper.GetString("frame_interval"))
		if err != nil {
			return cfg, fmt.Errorf("%w: frame_interval: %w", ErrInvalidConfig, err)
		}
		cfg.FrameInterval = d
	}
	if viper.IsSet("pause_policy") {
		cfg.PausePolicy = PausePolicy(viper.GetString("pause_policy"))
	}

	// Rate changes
	if viper.IsSet("rederive_delay") {
		d, err := time.ParseDuration(viper.GetString("rederive_delay"))
		if err != nil {
			return cfg, fmt.Errorf("%w: rederive_delay: %w", ErrInvalidConfig, err)
		}
		cfg.RederiveDelay = d
	}
	if viper.IsSet("keep_position_on_rate_change") {
		cfg.KeepPositionOnRateChange = viper.GetBool("keep_position_on_rate_change")
	}
	if viper.IsSet("cache_size") {
		cfg.CacheSize = viper.GetInt("cache_size")
	}

	// Visual settings
	if viper.IsSet("font_size") {
		cfg.FontSize = viper.GetFloat64("font_size")
	}
	if viper.IsSet("anchor_color") {
		cfg.AnchorColor = viper.GetString("anchor_color")
	}
	if viper.IsSet("show_progress") {
		cfg.ShowProgress = viper.GetBool("show_progress")
	}

	if viper.IsSet("watch") {
		cfg.Watch = viper.GetBool("watch")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid reader configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults sets default values in Viper for reader configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("wpm", defaults.WPM)
	viper.SetDefault("frame_interval", defaults.FrameInterval.String())
	viper.SetDefault("pause_policy", string(defaults.PausePolicy))

	viper.SetDefault("rederive_delay", defaults.RederiveDelay.String())
	viper.SetDefault("keep_position_on_rate_change", defaults.KeepPositionOnRateChange)
	viper.SetDefault("cache_size", defaults.CacheSize)

	viper.SetDefault("font_size", defaults.FontSize)
	viper.SetDefault("anchor_color", defaults.AnchorColor)
	viper.SetDefault("show_progress", defaults.ShowProgress)

	viper.SetDefault("watch", defaults.Watch)
}
