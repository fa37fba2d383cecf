package config

func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/klinesync.db"
	}
	if c.Store.RunLogPath == "" {
		c.Store.RunLogPath = "data/runlog.db"
	}
	if c.Binance.RESTBaseURL == "" {
		c.Binance.RESTBaseURL = "https://api.binance.com"
	}
	if c.Binance.HTTPTimeoutSec <= 0 {
		c.Binance.HTTPTimeoutSec = 15
	}
	if c.Binance.PageLimit <= 0 {
		c.Binance.PageLimit = 1000
	}
	if c.Binance.RateLimitPerMin <= 0 {
		c.Binance.RateLimitPerMin = 480
	}
	if c.Binance.RetryAttempts <= 0 {
		c.Binance.RetryAttempts = 3
	}
	if c.Sync.MaxConcurrent <= 0 {
		c.Sync.MaxConcurrent = 1
	}
}
