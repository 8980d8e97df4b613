package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// 环境变量前缀
const EnvPrefix = "CARDVISION_"

// LoadDotEnv 加载 .env 文件到进程环境，文件不存在时忽略
func LoadDotEnv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("加载 .env 失败: %w", err)
	}
	return nil
}

// ApplyEnv 使用 CARDVISION_* 环境变量覆盖配置
func (c *AppConfig) ApplyEnv() error {
	c.Templates.Dir = getEnv("TEMPLATES_DIR", c.Templates.Dir)
	c.Source.Kind = getEnv("SOURCE_KIND", c.Source.Kind)
	c.Source.URI = getEnv("SOURCE_URI", c.Source.URI)
	c.Server.Addr = getEnv("SERVER_ADDR", c.Server.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)

	var err error
	if c.Source.Device, err = getEnvInt("SOURCE_DEVICE", c.Source.Device); err != nil {
		return err
	}
	if c.Server.WebSocket, err = getEnvBool("SERVER_WEBSOCKET", c.Server.WebSocket); err != nil {
		return err
	}
	if c.Vision.MinContourArea, err = getEnvFloat("MIN_CONTOUR_AREA", c.Vision.MinContourArea); err != nil {
		return err
	}
	if c.Vision.MatchThreshold, err = getEnvFloat("MATCH_THRESHOLD", c.Vision.MatchThreshold); err != nil {
		return err
	}
	if c.Vision.MinConfidence, err = getEnvFloat("MIN_CONFIDENCE", c.Vision.MinConfidence); err != nil {
		return err
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("环境变量 %s%s 不是整数: %q", EnvPrefix, key, raw)
	}
	return v, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback, fmt.Errorf("环境变量 %s%s 不是数字: %q", EnvPrefix, key, raw)
	}
	return v, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	raw, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("环境变量 %s%s 不是布尔值: %q", EnvPrefix, key, raw)
	}
	return v, nil
}
