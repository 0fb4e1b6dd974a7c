// Package config loads runtime settings (viper) and site definitions (sites.yaml).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds everything the commands need that is not part of a site definition.
type Settings struct {
	SiteID     string `mapstructure:"site_id"`
	SitesFile  string `mapstructure:"sites_file"`
	ContentDir string `mapstructure:"content_dir"`
	PublicDir  string `mapstructure:"public_dir"`
	Verbose    bool   `mapstructure:"verbose"`

	Server ServerSettings `mapstructure:"server"`
	CMS    CMSSettings    `mapstructure:"cms"`
	LLM    LLMSettings    `mapstructure:"llm"`
	Store  StoreSettings  `mapstructure:"store"`
}

type ServerSettings struct {
	Addr string `mapstructure:"addr"`
}

type CMSSettings struct {
	BaseURL   string        `mapstructure:"base_url"`
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type LLMSettings struct {
	Provider         string `mapstructure:"provider"`
	Model            string `mapstructure:"model"`
	OpenRouterAPIKey string `mapstructure:"openrouter_api_key"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
}

type StoreSettings struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// envBindings maps setting keys to the environment variables the deployment already uses.
var envBindings = map[string][]string{
	"site_id":                {"SITE_ID", "NEXT_PUBLIC_SITE_ID"},
	"llm.openrouter_api_key": {"OPENROUTER_API_KEY"},
	"llm.gemini_api_key":     {"GEMINI_API_KEY"},
	"cms.base_url":           {"CMS_BASE_URL"},
	"store.dsn":              {"DATABASE_URL"},
}

// New returns a viper instance with defaults and environment bindings applied.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("sites_file", "sites.yaml")
	v.SetDefault("content_dir", "content")
	v.SetDefault("public_dir", "public")
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("cms.cache_size", 512)
	v.SetDefault("cms.cache_ttl", 10*time.Minute)
	v.SetDefault("cms.timeout", 10*time.Second)
	v.SetDefault("llm.provider", "openrouter")
	v.SetDefault("llm.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("store.driver", "") // inferred from the dsn

	v.SetEnvPrefix("SITEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		_ = v.BindEnv(args...)
	}
	return v
}

// Load reads the optional config file and decodes the settings.
// A missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper, cfgFile string) (*Settings, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sitekit")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &s, nil
}
