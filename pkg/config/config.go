package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// AppConfig 应用配置
type AppConfig struct {
	Vision    VisionConfig    `json:"vision"`
	Templates TemplatesConfig `json:"templates"`
	Source    SourceConfig    `json:"source"`
	Server    ServerConfig    `json:"server"`
	Log       LogConfig       `json:"log"`
}

// HSVRange HSV 颜色区间（OpenCV 取值: H 0-179, S/V 0-255）
type HSVRange struct {
	Lower [3]float64 `json:"lower"`
	Upper [3]float64 `json:"upper"`
}

// ROI 标准卡片坐标系下的矩形区域
type ROI struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Size 宽高
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VisionConfig 识别流水线参数
type VisionConfig struct {
	CardSize Size `json:"card_size"`

	Background HSVRange   `json:"background_hsv"`
	RedRanges  []HSVRange `json:"red_hsv"`

	BlurKernel  int     `json:"blur_kernel"`
	BlurSigma   float64 `json:"blur_sigma"`
	MorphKernel int     `json:"morph_kernel"`

	MinContourArea float64 `json:"min_contour_area"`
	EpsilonSingle  float64 `json:"epsilon_single"`
	EpsilonMulti   float64 `json:"epsilon_multi"`

	RankROI ROI `json:"rank_roi"`
	SuitROI ROI `json:"suit_roi"`

	RankTemplateSize Size `json:"rank_template_size"`
	SuitTemplateSize Size `json:"suit_template_size"`

	BinarizeThreshold float64   `json:"binarize_threshold"`
	Scales            []float64 `json:"scales"`
	MatchThreshold    float64   `json:"match_threshold"`
	MinConfidence     float64   `json:"min_confidence"`

	RedMinusGreen float64 `json:"red_minus_green"`
	RedMinusBlue  float64 `json:"red_minus_blue"`

	DarkThreshold    float64 `json:"dark_threshold"`
	OrientationRatio float64 `json:"orientation_ratio"`
}

// TemplatesConfig 模板库配置
type TemplatesConfig struct {
	Dir string `json:"dir"`
}

// SourceConfig 帧源配置
type SourceConfig struct {
	// Kind: camera | video | rtsp | images | screen
	Kind   string   `json:"kind"`
	URI    string   `json:"uri"`
	Device int      `json:"device"`
	Images []string `json:"images,omitempty"`
	Screen ROI      `json:"screen"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr      string `json:"addr"`
	WebSocket bool   `json:"websocket"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// DefaultVisionConfig 默认识别参数
func DefaultVisionConfig() VisionConfig {
	return VisionConfig{
		CardSize: Size{Width: 200, Height: 300},
		Background: HSVRange{
			Lower: [3]float64{35, 153, 0},
			Upper: [3]float64{105, 255, 255},
		},
		RedRanges: []HSVRange{
			{Lower: [3]float64{0, 30, 30}, Upper: [3]float64{15, 255, 255}},
			{Lower: [3]float64{150, 30, 30}, Upper: [3]float64{179, 255, 255}},
		},
		BlurKernel:        5,
		BlurSigma:         0,
		MorphKernel:       3,
		MinContourArea:    5000,
		EpsilonSingle:     0.03,
		EpsilonMulti:      0.02,
		RankROI:           ROI{X: 0, Y: 3, Width: 85, Height: 50},
		SuitROI:           ROI{X: 5, Y: 50, Width: 40, Height: 40},
		RankTemplateSize:  Size{Width: 30, Height: 50},
		SuitTemplateSize:  Size{Width: 40, Height: 40},
		BinarizeThreshold: 150,
		Scales:            []float64{0.8, 0.9, 1.0, 1.1, 1.2},
		MatchThreshold:    0.35,
		MinConfidence:     0.5,
		RedMinusGreen:     23,
		RedMinusBlue:      33,
		DarkThreshold:     100,
		OrientationRatio:  1.2,
	}
}

// DefaultAppConfig 默认应用配置
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Vision:    DefaultVisionConfig(),
		Templates: TemplatesConfig{Dir: "templates"},
		Source:    SourceConfig{Kind: "camera", Device: 0},
		Server:    ServerConfig{Addr: ":8080", WebSocket: true},
		Log:       LogConfig{Level: "info"},
	}
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".cardvision"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// NewManagerWithFile 使用指定配置文件创建配置管理器
func NewManagerWithFile(path string) *Manager {
	return &Manager{
		configDir:  filepath.Dir(path),
		configFile: path,
	}
}

// Load 加载配置，文件不存在时返回默认配置
// 文件损坏时返回默认配置和错误
func (m *Manager) Load() (*AppConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultAppConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultAppConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 以默认值为底，缺省字段保持默认
	cfg := DefaultAppConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultAppConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	return cfg, nil
}

// Save 保存配置
func (m *Manager) Save(cfg *AppConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*AppConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(cfg *AppConfig) error {
	return defaultManager.Save(cfg)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
