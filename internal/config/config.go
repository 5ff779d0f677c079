package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type MQTTConfig struct {
	// broker URL, e.g. tcp://localhost:1883
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"clientId"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      byte   `mapstructure:"qos"`
	// upper bound of the reconnect backoff
	MaxReconnectSeconds int `mapstructure:"maxReconnectSeconds"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type QueueConfig struct {
	Size         int `mapstructure:"size"`
	PutTimeoutMs int `mapstructure:"putTimeoutMs"`
}

func (q QueueConfig) PutTimeout() time.Duration {
	return time.Duration(q.PutTimeoutMs) * time.Millisecond
}

type ClockConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SunriseMin string `mapstructure:"sunriseMin"`
	SunriseMax string `mapstructure:"sunriseMax"`
	SunsetMin  string `mapstructure:"sunsetMin"`
	SunsetMax  string `mapstructure:"sunsetMax"`
	// length of the dawn and dusk windows
	TwilightMinutes int `mapstructure:"twilightMinutes"`
	// start dates ("MM-DD") of up to 8 calendar periods
	Periods        []string `mapstructure:"periods"`
	ReductionStart string   `mapstructure:"reductionStart"`
	ReductionEnd   string   `mapstructure:"reductionEnd"`
}

type HueConfig struct {
	BridgeIP    string   `mapstructure:"bridgeIp"`
	AppKey      string   `mapstructure:"applicationKey"`
	LightIDs    []string `mapstructure:"lightIds"`
	WatchEvents bool     `mapstructure:"watchEvents"`
}

type HTTPConfig struct {
	// empty disables the event stream and metrics endpoints
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// rotating log file, empty for stderr only
	File       string `mapstructure:"file"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	// follow the verbosity stored in the luminaire configuration
	FollowVerbosity bool `mapstructure:"followVerbosity"`
}

type Config struct {
	TopicBase   string         `mapstructure:"topicBase"`
	JSONSupport bool           `mapstructure:"jsonSupport"`
	Backtest    bool           `mapstructure:"backtest"`
	GeoLocation string         `mapstructure:"geoLocation"`
	MQTT        MQTTConfig     `mapstructure:"mqtt"`
	Database    DatabaseConfig `mapstructure:"database"`
	Queue       QueueConfig    `mapstructure:"queue"`
	Clock       ClockConfig    `mapstructure:"clock"`
	Hue         HueConfig      `mapstructure:"hue"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	Log         LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("topicBase", "luxman")
	v.SetDefault("jsonSupport", true)
	v.SetDefault("backtest", true)
	v.SetDefault("geoLocation", "51.5072,-0.1276")

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.clientId", "luxman")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("mqtt.maxReconnectSeconds", 60)

	v.SetDefault("database.path", "luxman.db")
	v.SetDefault("queue.size", 16)
	v.SetDefault("queue.putTimeoutMs", 200)

	v.SetDefault("clock.enabled", true)
	v.SetDefault("clock.sunriseMin", "00:00")
	v.SetDefault("clock.sunriseMax", "23:59")
	v.SetDefault("clock.sunsetMin", "00:00")
	v.SetDefault("clock.sunsetMax", "23:59")
	v.SetDefault("clock.twilightMinutes", 30)
	v.SetDefault("clock.reductionStart", "00:00")
	v.SetDefault("clock.reductionEnd", "00:00")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxAgeDays", 3)
}

// Load reads config.json from path, or from the usual locations when path is
// empty. A missing file in the usual locations leaves every default in place.
func Load(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath("/etc/luxman/")
		v.AddConfigPath("$HOME/.config/luxman/")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TopicBase == "" || strings.ContainsAny(c.TopicBase, "/+#") {
		return fmt.Errorf("%w: topicBase %q", ErrInvalidConfig, c.TopicBase)
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos %d", ErrInvalidConfig, c.MQTT.QoS)
	}
	if _, _, err := ParseGeoLocation(c.GeoLocation); err != nil {
		return err
	}
	if len(c.Clock.Periods) > 8 {
		return fmt.Errorf("%w: at most 8 clock periods", ErrInvalidConfig)
	}
	for _, s := range []string{c.Clock.SunriseMin, c.Clock.SunriseMax, c.Clock.SunsetMin, c.Clock.SunsetMax, c.Clock.ReductionStart, c.Clock.ReductionEnd} {
		if _, err := time.Parse("15:04", s); err != nil {
			return fmt.Errorf("%w: time %q", ErrInvalidConfig, s)
		}
	}
	for _, p := range c.Clock.Periods {
		if _, err := time.Parse("01-02", p); err != nil {
			return fmt.Errorf("%w: period start %q", ErrInvalidConfig, p)
		}
	}
	return nil
}

// ParseGeoLocation splits a "lat,lng" string.
func ParseGeoLocation(s string) (float64, float64, error) {
	latLng := strings.Split(s, ",")
	if len(latLng) != 2 {
		return 0, 0, fmt.Errorf("%w: geoLocation %q", ErrInvalidConfig, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latLng[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrInvalidConfig, latLng[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(latLng[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrInvalidConfig, latLng[1])
	}
	return lat, lng, nil
}
