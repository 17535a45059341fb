package config

import "fmt"

// Config holds all river configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	LLM      LLMConfig      `toml:"llm"`
	Agent    AgentConfig    `toml:"agent"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LLMConfig struct {
	Provider     string `toml:"provider"` // "anthropic", "ollama"
	Model        string `toml:"model"`
	OllamaURL    string `toml:"ollama_url"`
	OllamaModel  string `toml:"ollama_model"`
	AnthropicKey string `toml:"anthropic_key"`
}

type AgentConfig struct {
	Name         string `toml:"name"`          // persona name, e.g. "river"
	Variant      string `toml:"variant"`       // "river" (dice policy) or "entity" (reasoned policy)
	WakeInterval int    `toml:"wake_interval"` // seconds between wake cycles
	DailyQuota   int    `toml:"daily_quota"`   // max messages per 24h before the agent rests
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37717,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		LLM: LLMConfig{
			Provider: "anthropic",
		},
		Agent: AgentConfig{
			Name:         "river",
			Variant:      "river",
			WakeInterval: 300, // 5 minutes
			DailyQuota:   12,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
