package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Network NetworkConfig `mapstructure:"network"`
	Bqxs520 SiteConfig    `mapstructure:"bqxs520"`
	Hsz69   SiteConfig    `mapstructure:"hsz69"`
	Font    SiteConfig    `mapstructure:"font"`
	Avif    AvifConfig    `mapstructure:"avif"`
	Assets  AssetsConfig  `mapstructure:"assets"`
	Upload  UploadConfig  `mapstructure:"upload"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text, json
}

// NetworkConfig holds outbound HTTP settings
type NetworkConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
	MaxBodySize      int           `mapstructure:"max_body_size"`
	CloudflareBypass bool          `mapstructure:"cloudflare_bypass"`
	RenderFallback   bool          `mapstructure:"render_fallback"` // re-fetch challenge pages with headless chrome
	RenderTimeout    time.Duration `mapstructure:"render_timeout"`
}

// SiteConfig holds settings for one scraped site
type SiteConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	DetailDelay  time.Duration `mapstructure:"detail_delay"`
	DefaultImage string        `mapstructure:"default_image"`
}

// AvifConfig holds transcoder settings
type AvifConfig struct {
	FFmpegPath      string        `mapstructure:"ffmpeg_path"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	ConvertTimeout  time.Duration `mapstructure:"convert_timeout"`
	VersionTimeout  time.Duration `mapstructure:"version_timeout"`
}

// AssetsConfig holds the shared asset directory settings
type AssetsConfig struct {
	Dir           string        `mapstructure:"dir"`
	PublicPrefix  string        `mapstructure:"public_prefix"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// UploadConfig holds GitHub upload settings
type UploadConfig struct {
	APIBaseURL        string `mapstructure:"api_base_url"`
	RawBaseURL        string `mapstructure:"raw_base_url"`
	RequireSourceName bool   `mapstructure:"require_source_name"`
}

var cfg *Config

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "novelapi")
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// SetDefaults registers every default value on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 10*1024*1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("network.timeout", 10*time.Second)
	v.SetDefault("network.user_agent", "Mobile")
	v.SetDefault("network.max_body_size", 20*1024*1024)
	v.SetDefault("network.cloudflare_bypass", false)
	v.SetDefault("network.render_fallback", false)
	v.SetDefault("network.render_timeout", 60*time.Second)
	v.SetDefault("bqxs520.base_url", "https://www.bqxs520.com")
	v.SetDefault("bqxs520.detail_delay", time.Duration(0))
	v.SetDefault("bqxs520.default_image", "https://s2.loli.net/2024/11/10/RFcln7Wz2Y145VZ.jpg")
	v.SetDefault("hsz69.base_url", "https://www.69hsz.com")
	v.SetDefault("hsz69.user_agent", "Mozilla/5.0 (Linux; Android 13; PFJM10 Build/TP1A.220905.001; wv) AppleWebKit/537.36 (KHTML, like Gecko) Version/4.0 Chrome/131.0.6778.260 Mobile Safari/537.36")
	v.SetDefault("font.base_url", "https://m.feibzw.com")
	v.SetDefault("font.user_agent", "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Mobile Safari/537.36 EdgA/130.0.0.0")
	v.SetDefault("avif.ffmpeg_path", "")
	v.SetDefault("avif.download_timeout", 15*time.Second)
	v.SetDefault("avif.convert_timeout", 10*time.Second)
	v.SetDefault("avif.version_timeout", 5*time.Second)
	v.SetDefault("assets.dir", "data/assets")
	v.SetDefault("assets.public_prefix", "/assets")
	v.SetDefault("assets.max_age", 30*time.Second)
	v.SetDefault("assets.sweep_interval", 30*time.Second)
	v.SetDefault("upload.api_base_url", "https://api.github.com")
	v.SetDefault("upload.raw_base_url", "https://raw.githubusercontent.com")
	v.SetDefault("upload.require_source_name", true)
}

// Init initializes the configuration
func Init(cfgFile string) error {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(GetConfigDir())
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	viper.SetEnvPrefix("NOVELAPI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	cfg = nil
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
		_ = viper.Unmarshal(cfg)
		cfg.Assets.Dir = expandPath(cfg.Assets.Dir)
	}
	return cfg
}

// Default returns a configuration built from defaults only
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	out := &Config{}
	_ = v.Unmarshal(out)
	return out
}

// Set sets a configuration value
func Set(key, value string) error {
	viper.Set(key, value)

	// Ensure config directory exists
	configDir := GetConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// Reset cached config
	cfg = nil

	return viper.WriteConfigAs(GetConfigPath())
}

// GetValue retrieves a configuration value
func GetValue(key string) interface{} {
	return viper.Get(key)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
