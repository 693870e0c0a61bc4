// Package config gathers settings from flags, an optional config file, the
// .env file and the environment.
//
// Precedence follows viper: flags the user set, then environment variables
// (VOXASSIST_<KEY>, plus OPENAI_API_KEY), then the config file, then flag
// defaults.
package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"voxassist/internal/logging"
)

const EnvPrefix = "VOXASSIST"

type Config struct {
	LogLevel     string        `mapstructure:"log_level"`
	Model        string        `mapstructure:"model"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	SystemPrompt string        `mapstructure:"system_prompt"`
	Proxy        string        `mapstructure:"proxy"`
	WhisperModel string        `mapstructure:"whisper_model"`
	Language     string        `mapstructure:"language"`
	Threads      int           `mapstructure:"threads"`
	Workdir      string        `mapstructure:"workdir"`
	TasksDB      string        `mapstructure:"tasks_db"`
	Socket       string        `mapstructure:"socket"`
	HubURL       string        `mapstructure:"hub_url"`
	Beep         string        `mapstructure:"beep"`
	Speak        bool          `mapstructure:"speak"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// key -> flag name
var bindings = map[string]string{
	"log_level":     "log",
	"model":         "model",
	"base_url":      "base-url",
	"system_prompt": "system-prompt",
	"proxy":         "proxy",
	"whisper_model": "whisper-model",
	"language":      "language",
	"threads":       "threads",
	"workdir":       "workdir",
	"tasks_db":      "tasks-db",
	"socket":        "socket",
	"hub_url":       "hub",
	"beep":          "beep",
	"speak":         "speak",
	"timeout":       "timeout",
}

// RegisterFlags adds the shared flags to fs. Callers may add their own flags
// before parsing.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("env", "e", ".env", "Env file path")
	fs.StringP("config", "c", "", "Config file (yaml, toml or json)")
	fs.StringP("log", "l", "info", "Log level")
	fs.StringP("model", "m", "gpt-5-nano", "Chat model identifier")
	fs.String("base-url", "", "OpenAI-compatible API base URL (e.g. http://localhost:11434/v1/ for Ollama)")
	fs.String("system-prompt", "", "Optional system prompt sent before the transcription")
	fs.StringP("proxy", "p", "", "Socks proxy address")
	fs.StringP("whisper-model", "w", "third_party/whisper.cpp/models/ggml-small.bin", "Whisper model path")
	fs.String("language", "auto", "Spoken language (auto, en, ru, ...)")
	fs.Int("threads", 0, "Whisper threads, 0 for all CPUs")
	fs.StringP("workdir", "d", "", "Directory file tools operate in (default: current directory)")
	fs.String("tasks-db", "", "SQLite file for the task log (default: in memory)")
	fs.StringP("socket", "s", "/tmp/voxassist.sock", "Control socket path")
	fs.String("hub", "", "Websocket hub URL to publish results to")
	fs.String("beep", "", "MP3 played before listening")
	fs.Bool("speak", false, "Read answers aloud with espeak-ng")
	fs.Duration("timeout", 60*time.Second, "Per-request timeout")
}

// Load reads the configuration. fs must already be parsed.
func Load(fs *pflag.FlagSet) (Config, error) {
	if envFile, err := fs.GetString("env"); err == nil && envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, name := range bindings {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	if err := v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key: %w", err)
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		log.Debug("Loaded config file", "path", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model is required")
	}
	if c.APIKey == "" && c.BaseURL == "" {
		return errors.New("OPENAI_API_KEY not set")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Threads < 0 {
		return errors.New("threads must not be negative")
	}
	return nil
}
