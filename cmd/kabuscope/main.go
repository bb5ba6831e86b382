package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"kabuscope/internal/analyze"
	"kabuscope/internal/app"
	kscfg "kabuscope/internal/config"
	"kabuscope/internal/logger"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	filePath := flag.String("file", "", "本地 CSV 单次分析模式（输出 JSON 报告后退出）")
	encoding := flag.String("encoding", "", "覆盖输入编码（shift_jis/cp932/euc_jp/utf-8/latin1）")
	preset := flag.String("preset", "", "按名使用分析参数预设")
	flag.Parse()

	cfgPath := os.Getenv("KABUSCOPE_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := kscfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，benchmark=%s/%s）", cfg.App.Env, cfg.Benchmark.Provider, cfg.Benchmark.Symbol)

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}

	if *filePath != "" {
		if err := runOnce(ctx, application, *filePath, *encoding, *preset); err != nil {
			log.Fatalf("分析失败: %v", err)
		}
		return
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

// runOnce 读本地文件跑一次完整分析，把报告 JSON 打到标准输出。
func runOnce(ctx context.Context, application *app.App, path, encoding, preset string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	report, err := application.Service().Analyze(ctx, raw, analyze.Params{
		Encoding: encoding,
		Preset:   preset,
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
