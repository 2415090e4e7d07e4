package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log         Logger           `mapstructure:"logger"`
	API         API              `mapstructure:"api"`
	Cache       Cache            `mapstructure:"cache"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
	Gemini      GeminiConfig     `mapstructure:"gemini"`
	ChartSource ChartSource      `mapstructure:"chart_source"`
	Annotation  AnnotationConfig `mapstructure:"annotation"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type Cache struct {
	DefaultExpiration     time.Duration `mapstructure:"default_expiration"`
	CleanupInterval       time.Duration `mapstructure:"cleanup_interval"`
	AnalysisExpDuration   time.Duration `mapstructure:"analysis_exp_duration"`
	TelegramStateDuration time.Duration `mapstructure:"telegram_state_duration"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxUserRequestPerSecond   int           `mapstructure:"max_user_request_per_second"`
	RatelimitExpireDuration   time.Duration `mapstructure:"ratelimit_expire_duration"`
	RateLimitCleanupDuration  time.Duration `mapstructure:"rate_limit_cleanup_duration"`
}

type GeminiConfig struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseURL             string        `mapstructure:"base_url"`
	BaseModel           string        `mapstructure:"base_model"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
}

type ChartSource struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	BaseTimeout time.Duration `mapstructure:"base_timeout"`
	Width       int           `mapstructure:"width"`
	Height      int           `mapstructure:"height"`
}

// AnnotationConfig holds the numeric tunables of the validation, planning and
// rendering pipeline. They are configuration rather than constants because the
// right values differ per chart source; the defaults are the latest calibration.
type AnnotationConfig struct {
	LevelFilterThreshold float64 `mapstructure:"level_filter_threshold"`
	TargetCapMultiplier  float64 `mapstructure:"target_cap_multiplier"`
	ZoneBandWidth        float64 `mapstructure:"zone_band_width"`
	MaxMarks             int     `mapstructure:"max_marks"`
	RangePadding         float64 `mapstructure:"range_padding"`
	PlotLeft             float64 `mapstructure:"plot_left"`
	PlotRight            float64 `mapstructure:"plot_right"`
	PlotTop              float64 `mapstructure:"plot_top"`
	PlotBottom           float64 `mapstructure:"plot_bottom"`
	StoryMaxChars        int     `mapstructure:"story_max_chars"`
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)

	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)
	viper.SetDefault("cache.analysis_exp_duration", 5*time.Minute)
	viper.SetDefault("cache.telegram_state_duration", 2*time.Minute)

	viper.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta/models")
	viper.SetDefault("gemini.base_model", "gemini-2.0-flash")
	viper.SetDefault("gemini.timeout", 60*time.Second)
	viper.SetDefault("gemini.max_request_per_minute", 10)
	viper.SetDefault("gemini.max_token_per_minute", 1000000)

	viper.SetDefault("chart_source.base_timeout", 30*time.Second)
	viper.SetDefault("chart_source.width", 1280)
	viper.SetDefault("chart_source.height", 720)

	viper.SetDefault("telegram.timeout_duration", 60*time.Second)
	viper.SetDefault("telegram.max_global_request_per_second", 30)
	viper.SetDefault("telegram.max_user_request_per_second", 1)
	viper.SetDefault("telegram.ratelimit_expire_duration", 10*time.Minute)
	viper.SetDefault("telegram.rate_limit_cleanup_duration", 30*time.Minute)

	viper.SetDefault("annotation.level_filter_threshold", 0.05)
	viper.SetDefault("annotation.target_cap_multiplier", 2.5)
	viper.SetDefault("annotation.zone_band_width", 0.005)
	viper.SetDefault("annotation.max_marks", 9)
	viper.SetDefault("annotation.range_padding", 0.15)
	viper.SetDefault("annotation.plot_left", 0.08)
	viper.SetDefault("annotation.plot_right", 0.92)
	viper.SetDefault("annotation.plot_top", 0.05)
	viper.SetDefault("annotation.plot_bottom", 0.88)
	viper.SetDefault("annotation.story_max_chars", 80)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
