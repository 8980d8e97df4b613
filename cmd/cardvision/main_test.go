package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zoeyai/cardvision/internal/logger"
	"github.com/zoeyai/cardvision/pkg/config"
)

func TestGenerateTemplates(t *testing.T) {
	dir := t.TempDir()
	if err := generateTemplates(dir, config.DefaultVisionConfig()); err != nil {
		t.Fatal(err)
	}

	ranks, _ := os.ReadDir(filepath.Join(dir, "ranks"))
	suits, _ := os.ReadDir(filepath.Join(dir, "suits"))
	if len(ranks) != 13 || len(suits) != 4 {
		t.Errorf("模板数量错误: ranks=%d suits=%d", len(ranks), len(suits))
	}
}

func TestSelfCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("跳过 52 张牌自检")
	}
	ok, err := runSelfCheck(config.DefaultVisionConfig())
	if err != nil {
		t.Fatalf("自检出错: %v", err)
	}
	t.Logf("全部正确: %v", ok)
}

func TestSetupLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardvision.log")
	if err := setupLogger(config.LogConfig{Level: "debug", File: path}); err != nil {
		t.Fatal(err)
	}
	defer func() {
		logger.SetFile(false, "")
		logger.SetLevel(logger.INFO)
	}()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("日志文件应已创建: %v", err)
	}
}
