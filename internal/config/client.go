package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig — настройки CLI-клиента
type ClientConfig struct {
	APIURL          string        `mapstructure:"API_URL"`
	APITimeout      time.Duration `mapstructure:"API_TIMEOUT"`
	CredentialsFile string        `mapstructure:"CREDENTIALS_FILE"`
	CacheStaleAfter time.Duration `mapstructure:"CACHE_STALE_AFTER"`
}

func (c *ClientConfig) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  APIURL: %s\n", c.APIURL))
	sb.WriteString(fmt.Sprintf("  APITimeout: %s\n", c.APITimeout))
	sb.WriteString(fmt.Sprintf("  CredentialsFile: %s\n", c.CredentialsFile))
	sb.WriteString(fmt.Sprintf("  CacheStaleAfter: %s\n", c.CacheStaleAfter))
	return sb.String()
}

func defaultCredentialsFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "eng-community", "credentials.json")
	}
	return ".eng-community-credentials.json"
}

// LoadClientFromEnv загружает конфигурацию клиента из переменных окружения
func LoadClientFromEnv() (*ClientConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("API_URL", "http://localhost:3001/v1")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("CREDENTIALS_FILE", defaultCredentialsFile())
	v.SetDefault("CACHE_STALE_AFTER", "2m")
	for _, k := range []string{"API_URL", "API_TIMEOUT", "CREDENTIALS_FILE", "CACHE_STALE_AFTER"} {
		_ = v.BindEnv(k)
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode client config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, nil
}
