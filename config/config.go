package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	picstashhttp "github.com/picstash/picstash/http"
)

// Config is the root configuration struct for picstash.
type Config struct {
	Server  ServerConfig            `mapstructure:"server"`
	Storage StorageConfig           `mapstructure:"storage"`
	Sign    SignConfig              `mapstructure:"sign"`
	CORS    picstashhttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	StaticDir string `mapstructure:"static_dir" validate:"required"`
}

// StorageConfig holds object store configuration. Bucket is required: the
// process refuses to start without one.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=s3 filesystem memory"`
	Bucket  string `mapstructure:"bucket" validate:"required"`

	// S3 backend settings.
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	CredentialsFile string `mapstructure:"credentials_file"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`

	// Filesystem backend settings. The bucket becomes a subdirectory of Path.
	Path string `mapstructure:"path"`
}

// SignConfig holds signed-URL issuance configuration. The key pair and base
// URL only apply to the local signer used by the filesystem and memory
// backends; the s3 backend signs with its own credentials.
type SignConfig struct {
	ExpirySeconds int    `mapstructure:"expiry" validate:"min=1,max=604800"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	BaseURL       string `mapstructure:"base_url"`
	Region        string `mapstructure:"region"`
	Service       string `mapstructure:"service"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":             "server.port",
	"static-dir":       "server.static_dir",
	"backend":          "storage.backend",
	"bucket":           "storage.bucket",
	"region":           "storage.region",
	"credentials-file": "storage.credentials_file",
	"storage-path":     "storage.path",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// bindEnvKeys registers every known config key for env lookup. AutomaticEnv
// only covers keys viper already knows about, so keys without a default
// (storage.bucket, the key pairs) would otherwise never see their env vars
// during Unmarshal.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.port",
		"server.static_dir",
		"storage.backend",
		"storage.bucket",
		"storage.region",
		"storage.endpoint",
		"storage.credentials_file",
		"storage.access_key",
		"storage.secret_key",
		"storage.use_path_style",
		"storage.path",
		"sign.expiry",
		"sign.access_key",
		"sign.secret_key",
		"sign.base_url",
		"sign.region",
		"sign.service",
		"cors.enabled",
		"log.level",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "./frontend")

	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.path", "./data")

	v.SetDefault("sign.expiry", 900) // 15 minutes
	v.SetDefault("sign.region", "us-east-1")
	v.SetDefault("sign.service", "s3")
	v.SetDefault("sign.base_url", "http://localhost:8080/media")

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files. An explicitly named file that cannot be read is
	// fatal; only the implicit ./config.yaml lookup may be absent.
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file '%s': %w", configFiles[0], err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("read config file '%s': %w", cf, err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("PICSTASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
