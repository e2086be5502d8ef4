package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"pulse/internal/domain/entity"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultPath = "."

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	// HTTP configures the local diagnostics server.
	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Realtime configures the persistent server channel.
	Realtime RealtimeConfig `json:"realtime" yaml:"realtime"`

	// Geolocation configures position sampling and the significance filter.
	Geolocation GeolocationConfig `json:"geolocation" yaml:"geolocation"`

	// Notification seeds the initial notification preference.
	Notification NotificationConfig `json:"notification" yaml:"notification"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// RealtimeConfig defines the websocket channel parameters.
type RealtimeConfig struct {
	// ServerURL is the websocket endpoint of the alert distribution server.
	ServerURL string `json:"serverUrl" yaml:"serverUrl" validate:"required"`

	// AuthToken is the bearer token attached at connect time. Issuance and
	// refresh belong to the authentication collaborator.
	AuthToken string `json:"authToken" yaml:"authToken"`

	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`

	// Backoff shapes the reconnect retry schedule.
	Backoff BackoffConfig `json:"backoff" yaml:"backoff"`

	// EventBufferSize is the capacity of the inbound event channel.
	EventBufferSize int `json:"eventBufferSize" yaml:"eventBufferSize" validate:"gte=0"`
}

// BackoffConfig defines the exponential reconnect backoff schedule.
type BackoffConfig struct {
	InitialInterval time.Duration `json:"initialInterval" yaml:"initialInterval"`
	MaxInterval     time.Duration `json:"maxInterval" yaml:"maxInterval"`
	Multiplier      float64       `json:"multiplier" yaml:"multiplier"`
}

// GeolocationConfig defines position sampling behavior.
type GeolocationConfig struct {
	// SignificanceMeters is the minimum great-circle distance a fix must move
	// before it propagates downstream.
	SignificanceMeters float64 `json:"significanceMeters" yaml:"significanceMeters" validate:"gte=0"`

	// FixTimeout bounds how long a single fix may take.
	FixTimeout time.Duration `json:"fixTimeout" yaml:"fixTimeout"`

	// Bounds is the supported geographic area; fixes outside are discarded.
	Bounds entity.Bounds `json:"bounds" yaml:"bounds"`

	// Route is an optional scripted route for the replay provider, used when
	// no host geolocation capability is wired in.
	Route []RoutePoint `json:"route" yaml:"route"`

	// SampleInterval paces the replay provider.
	SampleInterval time.Duration `json:"sampleInterval" yaml:"sampleInterval"`
}

// RoutePoint is one stop of the replay provider's scripted route.
type RoutePoint struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`
}

// NotificationConfig seeds the user's notification preference.
type NotificationConfig struct {
	Enabled    bool            `json:"enabled" yaml:"enabled"`
	Volume     float64         `json:"volume" yaml:"volume" validate:"gte=0,lte=1"`
	Severities map[string]bool `json:"severities" yaml:"severities"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: REALTIME_SERVERURL -> realtime.serverUrl (not realtime.serverurl)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// ApplyDefaults fills zero-valued fields with the service defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Realtime.DialTimeout <= 0 {
		cfg.Realtime.DialTimeout = 10 * time.Second
	}
	if cfg.Realtime.WriteTimeout <= 0 {
		cfg.Realtime.WriteTimeout = 5 * time.Second
	}
	if cfg.Realtime.Backoff.InitialInterval <= 0 {
		cfg.Realtime.Backoff.InitialInterval = time.Second
	}
	if cfg.Realtime.Backoff.MaxInterval <= 0 {
		cfg.Realtime.Backoff.MaxInterval = 30 * time.Second
	}
	if cfg.Realtime.Backoff.Multiplier < 1 {
		cfg.Realtime.Backoff.Multiplier = 2
	}
	if cfg.Realtime.EventBufferSize <= 0 {
		cfg.Realtime.EventBufferSize = 64
	}
	if cfg.Geolocation.SignificanceMeters <= 0 {
		cfg.Geolocation.SignificanceMeters = 100
	}
	if cfg.Geolocation.FixTimeout <= 0 {
		cfg.Geolocation.FixTimeout = 30 * time.Second
	}
	if cfg.Geolocation.SampleInterval <= 0 {
		cfg.Geolocation.SampleInterval = 15 * time.Second
	}
	if cfg.Geolocation.Bounds == (entity.Bounds{}) {
		cfg.Geolocation.Bounds = entity.WorldBounds()
	}
	if cfg.Notification.Volume <= 0 {
		cfg.Notification.Volume = 1
	}
}

// Preference builds the initial notification preference from config.
func (cfg *Config) Preference() entity.NotificationPreference {
	pref := entity.DefaultNotificationPreference()
	pref.Enabled = cfg.Notification.Enabled
	pref.Volume = cfg.Notification.Volume
	for name, enabled := range cfg.Notification.Severities {
		severity, err := entity.ParseSeverity(strings.ToLower(name))
		if err != nil {
			continue
		}
		pref.PerSeverity[severity] = enabled
	}

	return pref
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
