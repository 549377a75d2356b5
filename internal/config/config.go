package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SqliteConfig sqlite 存储配置
type SqliteConfig struct {
	Dsn    string `yaml:"dsn"`
	Prefix string `yaml:"prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string   `yaml:"level"`
	Writer []string `yaml:"writer"`
	File   string   `yaml:"file"`
}

// ProxyConfig 代理上报侧的处理参数
type ProxyConfig struct {
	// MaxBodySize 非 LLM 流量正文超过该字节数后截断存储
	MaxBodySize int64 `yaml:"maxBodySize"`
	// LLMHosts 视为 LLM API 的主机名片段列表
	LLMHosts []string `yaml:"llmHosts"`
}

// Config 配置文件结构体
type Config struct {
	Version string       `yaml:"version"`
	Sqlite  SqliteConfig `yaml:"sqlite"`
	Log     LogConfig    `yaml:"log"`
	Proxy   ProxyConfig  `yaml:"proxy"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Sqlite: SqliteConfig{
			Dsn:    "db.sqlite3",
			Prefix: "tollbooth_",
		},
		Log: LogConfig{
			Level:  "debug",
			Writer: []string{"console", "file"},
			File:   "tollbooth.log",
		},
		Proxy: ProxyConfig{
			MaxBodySize: 1 << 20,
			LLMHosts: []string{
				"api.anthropic.com",
				"api.openai.com",
				"generativelanguage.googleapis.com",
				"chatgpt.com",
			},
		},
	}
}

// Load 从文件加载配置，缺失项回填默认值
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Proxy.MaxBodySize <= 0 {
		cfg.Proxy.MaxBodySize = 1 << 20
	}
	return cfg, nil
}
