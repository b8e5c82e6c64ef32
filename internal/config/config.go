package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 应用程序配置
type Config struct {
	// Groq LLM 服务配置
	Groq GroqConfig `yaml:"groq"`

	// 外部沙箱门户配置
	Sandbox SandboxConfig `yaml:"sandbox"`

	// 批处理配置
	Batch BatchConfig `yaml:"batch"`

	// 数据目录配置
	Data DataConfig `yaml:"data"`

	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 日志配置
	Logger LoggerConfig `yaml:"logger"`

	// 链路追踪配置
	Tracing TracingConfig `yaml:"tracing"`

	// 模型QPM限制配置，键为模型名
	ModelQPMLimits map[string]int `yaml:"model_qpm_limits"`
}

// GroqConfig Groq OpenAI 兼容接口配置
type GroqConfig struct {
	APIKey      string  `yaml:"api_key"`
	APIURL      string  `yaml:"api_url"`
	Model       string  `yaml:"model"`       // 主生成模型
	FastModel   string  `yaml:"fast_model"`  // 用于改写/校验的轻量模型
	Temperature float64 `yaml:"temperature"` // 默认采样温度
	MaxTokens   int     `yaml:"max_tokens"`
	QPM         int     `yaml:"qpm"` // 每分钟请求数限制
}

// SandboxConfig 沙箱门户客户端配置
type SandboxConfig struct {
	BaseURL        string `yaml:"base_url"` // 例如 "http://localhost:8001"
	APIKey         string `yaml:"api_key"`  // X-API-Key 请求头的值
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxAttempts    int    `yaml:"max_attempts"` // 单次投递的最大尝试次数
}

// BatchConfig 批处理配置
type BatchConfig struct {
	PacingSeconds int `yaml:"pacing_seconds"` // 两个职位之间的固定间隔(秒)
}

// DataConfig 数据目录配置
type DataConfig struct {
	Dir string `yaml:"dir"` // JSON 数据文件所在目录
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080" or "0.0.0.0:8080"
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// TracingConfig OpenTelemetry 配置
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // 例如 "localhost:4317"
	ServiceName  string  `yaml:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果未指定配置文件路径，则尝试在默认位置查找
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".auto-apply", "config.yaml"),
		}

		// 可执行文件所在目录及其上级
		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
			searchPaths = append(searchPaths, filepath.Join(execDir, "..", "config.yaml"))
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		// 如果仍找不到配置文件：测试环境下返回默认配置，否则使用默认路径
		if configPath == "" {
			if inTestEnv() {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	// 检查文件是否存在
	if _, err := os.Stat(configPath); err != nil {
		if inTestEnv() {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖配置（如果存在）
	if envKey := os.Getenv("GROQ_API_KEY"); envKey != "" {
		config.Groq.APIKey = envKey
	}
	if envURL := os.Getenv("GROQ_API_URL"); envURL != "" {
		config.Groq.APIURL = envURL
	}
	if envKey := os.Getenv("SANDBOX_API_KEY"); envKey != "" {
		config.Sandbox.APIKey = envKey
	}

	applyDefaults(&config)
	return &config, nil
}

// LoadConfigFromFileOnly 从文件加载配置，不尝试从环境变量覆盖
func LoadConfigFromFileOnly(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("必须提供配置文件路径")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// applyDefaults 填充未配置项的默认值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Data.Dir == "" {
		config.Data.Dir = "data"
	}
	if config.Groq.APIURL == "" {
		config.Groq.APIURL = "https://api.groq.com/openai/v1/chat/completions"
	}
	if config.Groq.Model == "" {
		config.Groq.Model = "llama-3.3-70b-versatile"
	}
	if config.Groq.FastModel == "" {
		config.Groq.FastModel = "llama-3.1-8b-instant"
	}
	if config.Groq.Temperature == 0 {
		config.Groq.Temperature = 0.7
	}
	if config.Groq.MaxTokens == 0 {
		config.Groq.MaxTokens = 2048
	}
	if config.Sandbox.BaseURL == "" {
		config.Sandbox.BaseURL = "http://localhost:8001"
	}
	if config.Sandbox.TimeoutSeconds == 0 {
		config.Sandbox.TimeoutSeconds = 10
	}
	if config.Sandbox.MaxAttempts == 0 {
		config.Sandbox.MaxAttempts = 3
	}
	if config.Batch.PacingSeconds == 0 {
		config.Batch.PacingSeconds = 5
	}
	if config.Tracing.ServiceName == "" {
		config.Tracing.ServiceName = "auto-apply-go"
	}
	if config.Tracing.SampleRatio == 0 {
		config.Tracing.SampleRatio = 1.0
	}
}

// createDefaultConfig 创建用于测试环境的默认配置
func createDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	config.Logger = LoggerConfig{Level: "warn", Format: "pretty", TimeFormat: "15:04:05"}
	// 测试环境下不做两次投递之间的停顿
	config.Batch.PacingSeconds = 0
	return config
}

// inTestEnv 粗略检测当前是否在 go test 环境中运行
func inTestEnv() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}
