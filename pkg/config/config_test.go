package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultAppConfig(t *testing.T) {
	cfg := DefaultAppConfig()
	v := cfg.Vision

	if v.CardSize != (Size{Width: 200, Height: 300}) {
		t.Errorf("默认卡片尺寸应为 200x300, 实际为 %+v", v.CardSize)
	}
	if v.MinContourArea != 5000 {
		t.Errorf("默认最小面积应为 5000, 实际为 %v", v.MinContourArea)
	}
	if v.MatchThreshold != 0.35 || v.MinConfidence != 0.5 {
		t.Errorf("默认阈值错误: match=%v min=%v", v.MatchThreshold, v.MinConfidence)
	}
	if len(v.Scales) != 5 || v.Scales[0] != 0.8 || v.Scales[4] != 1.2 {
		t.Errorf("默认缩放比例错误: %v", v.Scales)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("默认配置应通过校验: %v", err)
	}

	t.Logf("默认配置: %+v", v)
}

func TestManagerSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	cfg := DefaultAppConfig()
	cfg.Templates.Dir = "/data/templates"
	cfg.Source.Kind = "rtsp"
	cfg.Source.URI = "rtsp://cam.local/stream"
	cfg.Vision.MinContourArea = 8000

	if err := manager.Save(cfg); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if loaded.Templates.Dir != cfg.Templates.Dir {
		t.Errorf("Templates.Dir 不匹配: 期望 %s, 实际 %s", cfg.Templates.Dir, loaded.Templates.Dir)
	}
	if loaded.Source.URI != cfg.Source.URI || loaded.Source.Kind != "rtsp" {
		t.Errorf("Source 不匹配: %+v", loaded.Source)
	}
	if loaded.Vision.MinContourArea != 8000 {
		t.Errorf("MinContourArea 不匹配: %v", loaded.Vision.MinContourArea)
	}
}

func TestManagerPartialFileKeepsDefaults(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(path, []byte(`{"templates":{"dir":"x"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	loaded, err := NewManagerWithFile(path).Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if loaded.Templates.Dir != "x" {
		t.Errorf("Templates.Dir 应为 x, 实际为 %s", loaded.Templates.Dir)
	}
	if loaded.Vision.CardSize.Width != 200 {
		t.Errorf("未给出的字段应保持默认值, 实际 %+v", loaded.Vision.CardSize)
	}
}

func TestManagerClear(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	if err := manager.Clear(); err != nil {
		t.Errorf("清除不存在的配置不应报错: %v", err)
	}
	if err := manager.Save(DefaultAppConfig()); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if err := manager.Clear(); err != nil {
		t.Fatalf("清除配置失败: %v", err)
	}
	if manager.Exists() {
		t.Error("清除后配置文件不应存在")
	}
}

func TestManagerLoadNonExistent(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	cfg, err := manager.Load()
	if err != nil {
		t.Fatalf("加载不存在的配置不应报错: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("应返回默认配置, 实际 Server.Addr = %s", cfg.Server.Addr)
	}
}

func TestManagerLoadInvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if err := os.WriteFile(filepath.Join(tempDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatalf("写入无效配置失败: %v", err)
	}

	cfg, err := manager.Load()
	if err == nil {
		t.Error("加载无效 JSON 应该报错")
	}
	if cfg == nil || cfg.Vision.MinContourArea != 5000 {
		t.Error("加载失败时应返回默认配置")
	}
}

func TestManagerPaths(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.GetConfigDir() != tempDir {
		t.Errorf("GetConfigDir 错误: %s", manager.GetConfigDir())
	}
	if manager.GetConfigFile() != filepath.Join(tempDir, "config.json") {
		t.Errorf("GetConfigFile 错误: %s", manager.GetConfigFile())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *AppConfig)
	}{
		{"点数ROI越界", func(c *AppConfig) { c.Vision.RankROI = ROI{X: 180, Y: 0, Width: 85, Height: 50} }},
		{"花色ROI负坐标", func(c *AppConfig) { c.Vision.SuitROI.X = -1 }},
		{"卡片尺寸为零", func(c *AppConfig) { c.Vision.CardSize.Width = 0 }},
		{"偶数模糊核", func(c *AppConfig) { c.Vision.BlurKernel = 4 }},
		{"空缩放列表", func(c *AppConfig) { c.Vision.Scales = nil }},
		{"阈值越界", func(c *AppConfig) { c.Vision.MatchThreshold = 1.5 }},
		{"二值化阈值越界", func(c *AppConfig) { c.Vision.BinarizeThreshold = 300 }},
		{"暗像素阈值为负", func(c *AppConfig) { c.Vision.DarkThreshold = -1 }},
		{"红绿差越界", func(c *AppConfig) { c.Vision.RedMinusGreen = 256 }},
		{"红蓝差为负", func(c *AppConfig) { c.Vision.RedMinusBlue = -5 }},
		{"未知帧源", func(c *AppConfig) { c.Source.Kind = "fax" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAppConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("期望 ErrInvalidConfig, 实际 %v", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CARDVISION_TEMPLATES_DIR", "/env/templates")
	t.Setenv("CARDVISION_MIN_CONTOUR_AREA", "6500")
	t.Setenv("CARDVISION_SERVER_WEBSOCKET", "false")

	cfg := DefaultAppConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv 失败: %v", err)
	}
	if cfg.Templates.Dir != "/env/templates" {
		t.Errorf("Templates.Dir 未被覆盖: %s", cfg.Templates.Dir)
	}
	if cfg.Vision.MinContourArea != 6500 {
		t.Errorf("MinContourArea 未被覆盖: %v", cfg.Vision.MinContourArea)
	}
	if cfg.Server.WebSocket {
		t.Error("Server.WebSocket 应为 false")
	}

	t.Setenv("CARDVISION_SOURCE_DEVICE", "abc")
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("非法整数应报错")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("缺失的 .env 应被忽略: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CARDVISION_LOG_LEVEL=debug\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CARDVISION_LOG_LEVEL", "")
	os.Unsetenv("CARDVISION_LOG_LEVEL")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("加载 .env 失败: %v", err)
	}
	if got := os.Getenv("CARDVISION_LOG_LEVEL"); got != "debug" {
		t.Errorf("CARDVISION_LOG_LEVEL 应为 debug, 实际 %q", got)
	}
}
