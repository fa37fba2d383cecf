package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	if cfg.Sync.ParamsFile != "" {
		if err := mergeParamsFile(&cfg, cfg.Sync.ParamsFile); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeParamsFile 读取 JSON 参数文档 {symbols, intervals, date_from, date_to}，
// 覆盖配置文件内的同名同步参数。
func mergeParamsFile(cfg *Config, path string) error {
	p := viper.New()
	p.SetConfigFile(path)
	p.SetConfigType("json")
	if err := p.ReadInConfig(); err != nil {
		return fmt.Errorf("reading params file failed (%s): %w", path, err)
	}
	var params struct {
		Symbols   []string `mapstructure:"symbols"`
		Intervals []string `mapstructure:"intervals"`
		DateFrom  string   `mapstructure:"date_from"`
		DateTo    string   `mapstructure:"date_to"`
	}
	if err := p.Unmarshal(&params); err != nil {
		return fmt.Errorf("parsing params file failed (%s): %w", path, err)
	}
	if len(params.Symbols) > 0 {
		cfg.Sync.Symbols = params.Symbols
	}
	if len(params.Intervals) > 0 {
		cfg.Sync.Intervals = params.Intervals
	}
	if params.DateFrom != "" {
		cfg.Sync.DateFrom = params.DateFrom
	}
	if params.DateTo != "" {
		cfg.Sync.DateTo = params.DateTo
	}
	return nil
}
