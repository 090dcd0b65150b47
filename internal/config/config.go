package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Environment    string        `mapstructure:"environment"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	Secret         string        `mapstructure:"secret"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	PasswordCost   int           `mapstructure:"password_cost"`

	Capture CaptureConfig `mapstructure:"capture"`
	Input   InputConfig   `mapstructure:"input"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Journal JournalConfig `mapstructure:"journal"`
	Stream  StreamConfig  `mapstructure:"stream"`
}

type CaptureConfig struct {
	ScreenWidth  int    `mapstructure:"screen_width"`
	ScreenHeight int    `mapstructure:"screen_height"`
	Label        string `mapstructure:"label"`
}

type InputConfig struct {
	Backend string  `mapstructure:"backend"` // headless | xdotool
	Rate    float64 `mapstructure:"rate"`
	Burst   int     `mapstructure:"burst"`
}

type LimitsConfig struct {
	JoinAttempts int           `mapstructure:"join_attempts"`
	JoinWindow   time.Duration `mapstructure:"join_window"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"` // empty disables the journal
}

type StreamConfig struct {
	MaxDroppedFrames int `mapstructure:"max_dropped_frames"`
}

const EnvPrefix = "RDESK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("environment", "development")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "change-me")
	v.SetDefault("read_limit", 16<<20)
	v.SetDefault("ping_period", "20s")
	v.SetDefault("pong_wait", "30s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 256)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("password_cost", 10)

	v.SetDefault("capture.screen_width", 1920)
	v.SetDefault("capture.screen_height", 1080)
	v.SetDefault("capture.label", "Remote Desktop Demo")

	v.SetDefault("input.backend", "headless")
	v.SetDefault("input.rate", 120)
	v.SetDefault("input.burst", 60)

	v.SetDefault("limits.join_attempts", 5)
	v.SetDefault("limits.join_window", "1m")

	v.SetDefault("journal.path", "")
	v.SetDefault("stream.max_dropped_frames", 0)
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default) over the
// defaults. RDESK_* environment variables win over both.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Str("input", cfg.Input.Backend).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.Capture.ScreenWidth <= 0 || c.Capture.ScreenHeight <= 0 {
		return fmt.Errorf("config: capture size %dx%d", c.Capture.ScreenWidth, c.Capture.ScreenHeight)
	}
	switch c.Input.Backend {
	case "headless", "xdotool":
	default:
		return fmt.Errorf("config: unknown input backend %q", c.Input.Backend)
	}
	return nil
}

func (c *Config) Debug() bool { return c.Mode == "debug" }
