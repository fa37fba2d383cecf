package config

// Config 顶层配置，字段均为显式命名的类型化配置，加载后统一校验。
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Store   StoreConfig   `mapstructure:"store"`
	Binance BinanceConfig `mapstructure:"binance"`
	Sync    SyncConfig    `mapstructure:"sync"`
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

type StoreConfig struct {
	Path       string `mapstructure:"path"`
	RunLogPath string `mapstructure:"runlog_path"`
}

type BinanceConfig struct {
	RESTBaseURL     string `mapstructure:"rest_base_url"`
	HTTPTimeoutSec  int    `mapstructure:"http_timeout_sec"`
	PageLimit       int    `mapstructure:"page_limit"`
	RateLimitPerMin int    `mapstructure:"rate_limit_per_min"`
	RetryAttempts   int    `mapstructure:"retry_attempts"`
}

// SyncConfig 同步参数；ParamsFile 指向 JSON 参数文档时会覆盖这四个字段。
type SyncConfig struct {
	Symbols       []string `mapstructure:"symbols"`
	Intervals     []string `mapstructure:"intervals"`
	DateFrom      string   `mapstructure:"date_from"`
	DateTo        string   `mapstructure:"date_to"`
	ParamsFile    string   `mapstructure:"params_file"`
	MaxConcurrent int      `mapstructure:"max_concurrent"`
}
