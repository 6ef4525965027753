package rsvp

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Config contains all reader configuration options.
type Config struct {
	// Timing
	WPM           int           `yaml:"wpm"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	PausePolicy   PausePolicy   `yaml:"pause_policy"`

	// Rate changes
	RederiveDelay            time.Duration `yaml:"rederive_delay"`
	KeepPositionOnRateChange bool          `yaml:"keep_position_on_rate_change"`
	CacheSize                int           `yaml:"cache_size"`

	// Visual settings
	FontSize     float64 `yaml:"font_size"`
	AnchorColor  string  `yaml:"anchor_color"`
	ShowProgress bool    `yaml:"show_progress"`

	// Sources
	Watch bool `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		WPM:           DefaultWPM,
		FrameInterval: 16 * time.Millisecond,
		PausePolicy:   PausePreserve,

		RederiveDelay:            0,
		KeepPositionOnRateChange: false,
		CacheSize:                32,

		FontSize:     DefaultFontSize,
		AnchorColor:  "#FF5F87",
		ShowProgress: true,

		Watch: false,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := ValidateRate(c.WPM); err != nil {
		return fmt.Errorf("%w: wpm must be between %d and %d in steps of %d, got %d",
			ErrInvalidConfig, MinWPM, MaxWPM, WPMStep, c.WPM)
	}

	if c.FontSize <= 0 {
		return fmt.Errorf("%w: %w: font size must be positive, got %g",
			ErrInvalidConfig, ErrInvalidFontSize, c.FontSize)
	}

	if c.FrameInterval <= 0 || c.FrameInterval > time.Second {
		return fmt.Errorf("%w: frame interval must be between 1ns and 1s, got %s",
			ErrInvalidConfig, c.FrameInterval)
	}

	c.PausePolicy = PausePolicy(strings.ToLower(string(c.PausePolicy)))
	if !c.PausePolicy.Valid() {
		return fmt.Errorf("%w: invalid pause policy '%s': must be one of %v",
			ErrInvalidConfig, c.PausePolicy, []PausePolicy{PausePreserve, PauseRestart})
	}

	if c.RederiveDelay < 0 {
		return fmt.Errorf("%w: rederive delay cannot be negative, got %s", ErrInvalidConfig, c.RederiveDelay)
	}

	if c.CacheSize < 0 || c.CacheSize > 1024 {
		return fmt.Errorf("%w: cache size must be between 0 and 1024, got %d", ErrInvalidConfig, c.CacheSize)
	}

	if c.AnchorColor == "" {
		return fmt.Errorf("%w: anchor color cannot be empty", ErrInvalidConfig)
	}

	return nil
}

// AnchorStyle returns the lipgloss style used to paint anchor characters.
func (c Config) AnchorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.AnchorColor))
}
