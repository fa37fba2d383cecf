package config

import (
	"fmt"
	"regexp"
	"strings"

	"klinesync/internal/market"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,20}$`)

func validate(c *Config) error {
	if len(c.Sync.Symbols) == 0 {
		return fmt.Errorf("sync.symbols cannot be empty")
	}
	for i, s := range c.Sync.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if !symbolPattern.MatchString(s) {
			return fmt.Errorf("sync.symbols[%d]: invalid symbol %q", i, c.Sync.Symbols[i])
		}
		c.Sync.Symbols[i] = s
	}
	if len(c.Sync.Intervals) == 0 {
		return fmt.Errorf("sync.intervals cannot be empty")
	}
	for i, iv := range c.Sync.Intervals {
		if _, err := market.ParseInterval(iv); err != nil {
			return fmt.Errorf("sync.intervals[%d]: %w (supported: %s)",
				i, err, strings.Join(market.SupportedIntervals(), ", "))
		}
	}
	if _, err := market.ParseDateRange(c.Sync.DateFrom, c.Sync.DateTo); err != nil {
		return fmt.Errorf("sync.date_from/date_to: %w", err)
	}
	if c.Binance.PageLimit > 1000 {
		return fmt.Errorf("binance.page_limit cannot exceed 1000")
	}
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level: unknown level %q", c.App.LogLevel)
	}
	return nil
}
