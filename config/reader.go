package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type DBConfig struct {
	DBName   string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type ConfigSchema struct {
	Backend struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"backend"`
	Databases struct {
		Master   DBConfig   `yaml:"master"`
		Replicas []DBConfig `yaml:"replicas"`
	} `yaml:"databases"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	RabbitMQ struct {
		URL string `yaml:"url"`
	} `yaml:"rabbitmq"`
	Auth struct {
		ProviderURL    string   `yaml:"provider_url"`
		ProviderKey    string   `yaml:"provider_key"`
		AllowedDomains []string `yaml:"allowed_domains"`
	} `yaml:"auth"`
	Moderation struct {
		URL             string  `yaml:"url"`
		APIKey          string  `yaml:"api_key"`
		SevereThreshold float64 `yaml:"severe_threshold"`
		TimeoutSeconds  int     `yaml:"timeout_seconds"`
	} `yaml:"moderation"`
	Notify struct {
		ResendAPIKey string `yaml:"resend_api_key"`
		ResendURL    string `yaml:"resend_url"`
		FromEmail    string `yaml:"from_email"`
		ToEmail      string `yaml:"to_email"`
	} `yaml:"notify"`
	Board struct {
		PublicBaseURL string `yaml:"public_base_url"`
		ApprovalToken string `yaml:"approval_token"`
		DefaultColor  string `yaml:"default_color"`
	} `yaml:"board"`
}

var AppConfig *ConfigSchema

// LoadConfig читает yaml конфигурацию и применяет переопределения из окружения
func LoadConfig(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var conf ConfigSchema
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return err
	}
	applyEnvOverrides(&conf)
	applyDefaults(&conf)
	AppConfig = &conf
	return nil
}

// applyEnvOverrides - секреты приходят из окружения и имеют приоритет над файлом
func applyEnvOverrides(conf *ConfigSchema) {
	if v := os.Getenv("HF_API_KEY"); v != "" {
		conf.Moderation.APIKey = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		conf.Notify.ResendAPIKey = v
	}
	if v := os.Getenv("APPROVAL_TOKEN"); v != "" {
		conf.Board.ApprovalToken = v
	}
	if v := os.Getenv("AUTH_PROVIDER_KEY"); v != "" {
		conf.Auth.ProviderKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		conf.Databases.Master.Password = v
	}
}

func applyDefaults(conf *ConfigSchema) {
	if conf.Moderation.SevereThreshold == 0 {
		conf.Moderation.SevereThreshold = 0.9
	}
	if conf.Moderation.TimeoutSeconds == 0 {
		conf.Moderation.TimeoutSeconds = 10
	}
	if conf.Notify.ResendURL == "" {
		conf.Notify.ResendURL = "https://api.resend.com/emails"
	}
	if conf.Board.DefaultColor == "" {
		conf.Board.DefaultColor = "#f0f0f0"
	}
	if conf.Board.PublicBaseURL == "" {
		conf.Board.PublicBaseURL = "http://localhost:8080"
	}
}

// Validate проверяет обязательные параметры до старта сервера.
// Токен модерации обязателен: молчаливый дефолт открыл бы approve/reject всем.
func (conf *ConfigSchema) Validate() error {
	if conf.Board.ApprovalToken == "" {
		return fmt.Errorf("board.approval_token is required (or APPROVAL_TOKEN env)")
	}
	if conf.Auth.ProviderURL == "" {
		return fmt.Errorf("auth.provider_url is required")
	}
	if len(conf.Auth.AllowedDomains) == 0 {
		return fmt.Errorf("auth.allowed_domains must not be empty")
	}
	if conf.Moderation.URL == "" {
		return fmt.Errorf("moderation.url is required")
	}
	return nil
}
