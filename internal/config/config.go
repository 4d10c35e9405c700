package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/askbot/backend/internal/service/provider"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Chat     ChatConfig
	Provider ProviderConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	providers, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: logCfg, Chat: chat, Provider: providers}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	development, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
		Development: development,
	}, nil
}

// ChatConfig 描述问答路由相关配置。
type ChatConfig struct {
	Greeting         string
	ChunkSize        int
	LocationKeywords []string
}

func loadChatConfig() (ChatConfig, error) {
	chunkSize := 2000
	if override, err := parseOptionalIntEnv("CHUNK_SIZE"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatConfig{}, fmt.Errorf("invalid CHUNK_SIZE value %d: must be positive", *override)
		}
		chunkSize = *override
	}

	return ChatConfig{
		Greeting:         strings.TrimSpace(os.Getenv("CHAT_GREETING")),
		ChunkSize:        chunkSize,
		LocationKeywords: parseListEnv("LOCATION_KEYWORDS"),
	}, nil
}

// ProviderConfig 描述上游公共 API 的访问方式。
type ProviderConfig struct {
	Timeout   time.Duration
	UserAgent string
	Endpoints provider.Endpoints
}

func loadProviderConfig() (ProviderConfig, error) {
	timeout := provider.DefaultTimeout
	if override, err := parseOptionalDurationEnv("PROVIDER_TIMEOUT"); err != nil {
		return ProviderConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return ProviderConfig{}, fmt.Errorf("invalid PROVIDER_TIMEOUT value %s: must be positive", *override)
		}
		timeout = *override
	}

	return ProviderConfig{
		Timeout:   timeout,
		UserAgent: getEnvOrDefault("PROVIDER_USER_AGENT", provider.DefaultUserAgent),
		Endpoints: provider.Endpoints{
			Nominatim:    getEnvOrDefault("NOMINATIM_URL", provider.NominatimURL),
			DuckDuckGo:   getEnvOrDefault("DUCKDUCKGO_URL", provider.DuckDuckGoURL),
			Bing:         getEnvOrDefault("BING_URL", provider.BingURL),
			Wikipedia:    getEnvOrDefault("WIKIPEDIA_URL", provider.WikipediaURL),
			JokeAPI:      getEnvOrDefault("JOKE_URL", provider.JokeAPIURL),
			UselessFacts: getEnvOrDefault("FACT_URL", provider.UselessFactsURL),
			Quotable:     getEnvOrDefault("QUOTE_URL", provider.QuotableURL),
		},
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseOptionalDurationEnv 接受 "10s" 这类时长，也接受纯数字（按秒计）。
func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		d := time.Duration(seconds) * time.Second
		return &d, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &d, nil
}

// parseListEnv 解析逗号分隔的列表，忽略空项。
func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
