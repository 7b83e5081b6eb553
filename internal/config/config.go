package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/keygate/keygate/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment   DeploymentConfig `validate:"required"`
	Server       ServerConfig     `validate:"required"`
	Logging      LoggingConfig    `validate:"required"`
	Stripe       StripeConfig     `validate:"required"`
	Email        EmailConfig
	Notification NotificationConfig
	ChatProxy    ChatProxyConfig
	Sentry       SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// StripeConfig carries the provider credentials for exactly one environment.
// Test vs live is decided once at process start by which key is loaded here;
// business logic never inspects process-wide state to find out.
type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key" validate:"required"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	PriceID       string `mapstructure:"price_id"`
	SuccessURL    string `mapstructure:"success_url"`
	CancelURL     string `mapstructure:"cancel_url"`
}

type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	ReplyTo     string `mapstructure:"reply_to"`
}

// NotificationConfig configures the in-process dispatcher that fans out
// admin summaries of lifecycle actions.
type NotificationConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Topic           string        `mapstructure:"topic"`
	AdminEmail      string        `mapstructure:"admin_email"`
	WebhookURL      string        `mapstructure:"webhook_url"`
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

// ChatProxyConfig configures the pass-through to an upstream
// OpenAI-compatible chat completion API.
type ChatProxyConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	UpstreamURL string        `mapstructure:"upstream_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	RetryMax    int           `mapstructure:"retry_max"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/keygate")

	v.SetEnvPrefix("KEYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeAPI))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.topic", "lifecycle_notifications")
	v.SetDefault("notification.max_retries", 3)
	v.SetDefault("notification.initial_interval", 1*time.Second)
	v.SetDefault("notification.max_interval", 10*time.Second)
	v.SetDefault("notification.multiplier", 2.0)
	v.SetDefault("notification.max_elapsed_time", 2*time.Minute)
	v.SetDefault("chat_proxy.upstream_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("chat_proxy.retry_max", 2)
	v.SetDefault("chat_proxy.timeout", 60*time.Second)
	v.SetDefault("sentry.sample_rate", 1.0)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Stripe:     StripeConfig{SecretKey: "sk_test_default"},
		Notification: NotificationConfig{
			Enabled:         true,
			Topic:           "lifecycle_notifications",
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2.0,
			MaxElapsedTime:  2 * time.Minute,
		},
	}
}
