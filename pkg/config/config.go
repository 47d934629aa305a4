package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	HostFilesystem = "filesystem"
	HostStorage    = "storage"
	HostFetch      = "fetch"

	TransportModeHTTP = "http"
	TransportModeSDK  = "sdk"

	ClientNetHTTP  = "nethttp"
	ClientFastHTTP = "fasthttp"

	StorageDrive = "drive"
	StorageS3    = "s3"

	// APIKeyEnv is both the environment variable and the property store key
	// holding the model API key.
	APIKeyEnv = "AISTUDIO_KEY"

	// other keys are read from CHECKIMAGE_<KEY>, dots as underscores
	envPrefix = "CHECKIMAGE"

	configFileName     = "config"
	propertiesFileName = "properties"
)

type Config struct {
	Host      string          `mapstructure:"host"`
	Model     string          `mapstructure:"model"`
	APIKey    string          `mapstructure:"api_key"`
	Endpoint  EndpointConfig  `mapstructure:"endpoint"`
	Transport TransportConfig `mapstructure:"transport"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Events    EventsConfig    `mapstructure:"events"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

type EndpointConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	APIVersion string `mapstructure:"api_version"`
}

type TransportConfig struct {
	Mode    string        `mapstructure:"mode"`
	Client  string        `mapstructure:"client"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Backend string      `mapstructure:"backend"`
	Drive   DriveConfig `mapstructure:"drive"`
	S3      S3Config    `mapstructure:"s3"`
}

type DriveConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	APIKey          string `mapstructure:"api_key"`
}

type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
}

type EventsConfig struct {
	File string `mapstructure:"file"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"host":             "host",
	"model":            "model",
	"base-url":         "endpoint.base_url",
	"api-version":      "endpoint.api_version",
	"transport":        "transport.mode",
	"client":           "transport.client",
	"timeout":          "transport.timeout",
	"storage":          "storage.backend",
	"drive-creds":      "storage.drive.credentials_file",
	"s3-bucket":        "storage.s3.bucket",
	"s3-region":        "storage.s3.region",
	"events":           "events.file",
	"metrics-textfile": "metrics.textfile",
	"log-level":        "log.level",
	"log-file":         "log.file",
	"concurrency":      "batch.concurrency",
}

// RegisterFlags declares every flag Load knows how to bind.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", ".", "directory holding config.yaml and properties.yaml")
	flags.String("host", "", "host environment: filesystem, storage or fetch (detected when empty)")
	flags.String("api-key", "", "model API key, overrides the host's own key source")
	flags.String("model", "", "model name")
	flags.String("base-url", "", "model API base URL")
	flags.String("api-version", "", "model API version")
	flags.String("transport", "", "request dispatch: http or sdk")
	flags.String("client", "", "HTTP client: nethttp or fasthttp")
	flags.Duration("timeout", 0, "HTTP client timeout, 0 keeps the client default")
	flags.String("storage", "", "storage backend: drive or s3")
	flags.String("drive-creds", "", "Drive service account credentials file")
	flags.String("s3-bucket", "", "S3 bucket holding images")
	flags.String("s3-region", "", "S3 region")
	flags.String("events", "", "events CSV (local path, or Drive folder path on the storage host)")
	flags.String("metrics-textfile", "", "write metrics to this textfile after the run")
	flags.String("log-level", "", "log level: debug or info")
	flags.String("log-file", "", "also write logs to this file")
	flags.Int("concurrency", 0, "parallel classifications for --images")
}

var globalConfig Config

// Load reads config.yaml and the environment, applies flags on top and
// resolves the API key for the detected host. config.yaml is optional.
func Load(fs afero.Fs, configPath string, flags *pflag.FlagSet) (*Config, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	v := newViper(fs, configPath, configFileName)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaultValues(v)
	if err := v.BindEnv("api_key", APIKeyEnv); err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", APIKeyEnv, err)
	}
	if err := v.BindEnv("log.level", envPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}
	if _, err := readConfigFile(v, configFileName); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s config: %w", configFileName, err)
	}

	props := newViper(fs, configPath, propertiesFileName)
	hasProperties, err := readConfigFile(props, propertiesFileName)
	if err != nil {
		return nil, err
	}

	if cfg.Host == "" {
		cfg.Host = detectHost(hasProperties)
	}
	if cfg.Host == HostStorage && cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageDrive
	}
	cfg.APIKey = resolveAPIKey(cfg.Host, cfg.APIKey, props)
	if flags != nil {
		if f := flags.Lookup("api-key"); f != nil && f.Changed {
			cfg.APIKey = f.Value.String()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return &cfg, nil
}

func newViper(fs afero.Fs, configPath, fileName string) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	return v
}

// readConfigFile reports whether the file was found; a missing file is not
// an error.
func readConfigFile(v *viper.Viper, fileName string) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return false, nil
		}
		return false, fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}
	return true, nil
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("model", "gemini-1.5-flash")
	v.SetDefault("endpoint.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("endpoint.api_version", "v1beta")
	v.SetDefault("transport.mode", TransportModeHTTP)
	v.SetDefault("transport.client", ClientNetHTTP)
	v.SetDefault("events.file", "events.csv")
	v.SetDefault("log.level", "info")
	v.SetDefault("batch.concurrency", 4)
}

// detectHost picks storage when a property store is present and the local
// filesystem otherwise. The fetch host is never detected, only named.
func detectHost(hasProperties bool) string {
	if hasProperties {
		return HostStorage
	}
	return HostFilesystem
}

func resolveAPIKey(host, fromEnv string, props *viper.Viper) string {
	switch host {
	case HostFilesystem:
		return fromEnv
	case HostStorage:
		return props.GetString(APIKeyEnv)
	default:
		return ""
	}
}

func (c *Config) Validate() error {
	switch c.Host {
	case HostFilesystem, HostStorage, HostFetch:
	default:
		return fmt.Errorf("unknown host %q", c.Host)
	}
	switch c.Transport.Mode {
	case TransportModeHTTP, TransportModeSDK:
	default:
		return fmt.Errorf("unknown transport mode %q", c.Transport.Mode)
	}
	switch c.Transport.Client {
	case ClientNetHTTP, ClientFastHTTP:
	default:
		return fmt.Errorf("unknown transport client %q", c.Transport.Client)
	}
	if c.Host == HostStorage {
		switch c.Storage.Backend {
		case StorageDrive:
		case StorageS3:
			if c.Storage.S3.Bucket == "" {
				return errors.New("storage.s3.bucket is required for the s3 backend")
			}
		default:
			return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
		}
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	return nil
}

func GetConfig() *Config {
	return &globalConfig
}
