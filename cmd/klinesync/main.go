package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"klinesync/internal/app"
	kscfg "klinesync/internal/config"
	"klinesync/internal/logger"
)

func main() {
	// log.Fatalf 会直接 os.Exit，defer 不会执行，所以真正的流程放在 run 里
	if err := run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context) error {
	cfgPath := os.Getenv("KLINESYNC_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := kscfg.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("读取配置失败: %w", err)
	}
	out, logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		return fmt.Errorf("初始化日志文件失败: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	slogger := logger.New(out, cfg.App.LogLevel)

	command := ""
	var args []string
	if len(os.Args) > 1 {
		command = os.Args[1]
		args = os.Args[2:]
	}

	application, err := app.NewApp(cfg, slogger)
	if err != nil {
		return fmt.Errorf("初始化应用失败: %w", err)
	}
	defer application.Close()

	if err := application.Run(ctx, command, args); err != nil {
		return fmt.Errorf("运行失败: %w", err)
	}
	return nil
}

func setupLogOutput(path string) (io.Writer, *os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return os.Stdout, nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	return mw, file, nil
}
