package config

import (
	"fmt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if err := c.SRS.validate(); err != nil {
		return fmt.Errorf("srs: %w", err)
	}

	return nil
}

func (s *SRSConfig) validate() error {
	if s.MinEaseFactor <= 0 {
		return fmt.Errorf("min_ease_factor must be > 0 (got %v)", s.MinEaseFactor)
	}
	if s.DefaultEaseFactor < s.MinEaseFactor {
		return fmt.Errorf("default_ease_factor %v below min_ease_factor %v", s.DefaultEaseFactor, s.MinEaseFactor)
	}
	if s.LapsePenalty < 0 || s.EasyBonus < 0 {
		return fmt.Errorf("lapse_penalty and easy_bonus must be >= 0")
	}
	if s.EasyIntervalMultiplier < 1 {
		return fmt.Errorf("easy_interval_multiplier must be >= 1 (got %v)", s.EasyIntervalMultiplier)
	}
	if s.FirstIntervalDays < 1 || s.SecondIntervalDays < s.FirstIntervalDays {
		return fmt.Errorf("interval ladder must satisfy 1 <= first_interval_days <= second_interval_days")
	}
	if s.MaxIntervalDays < s.SecondIntervalDays {
		return fmt.Errorf("max_interval_days %d below second_interval_days %d", s.MaxIntervalDays, s.SecondIntervalDays)
	}
	if s.SessionCardLimit < 0 {
		return fmt.Errorf("session_card_limit must be >= 0 (got %d)", s.SessionCardLimit)
	}
	return nil
}
