package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelibin/luxman/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_Load(t *testing.T) {

	t.Run("should overlay the file on the defaults", func(t *testing.T) {
		t.Parallel()
		// arrange
		path := writeConfig(t, `{
			"topicBase": "porch",
			"mqtt": { "broker": "tcp://broker:1883", "qos": 0 },
			"queue": { "putTimeoutMs": 50 },
			"hue": { "bridgeIp": "10.0.0.2", "applicationKey": "k", "lightIds": ["a", "b"] },
			"clock": { "periods": ["01-01", "06-01"] }
		}`)

		// act
		cfg, err := config.Load(viper.New(), path)

		// assert
		require.NoError(t, err)
		assert.Equal(t, "porch", cfg.TopicBase)
		assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
		assert.Equal(t, byte(0), cfg.MQTT.QoS)
		assert.Equal(t, "luxman", cfg.MQTT.ClientID)
		assert.Equal(t, 16, cfg.Queue.Size)
		assert.Equal(t, 50*time.Millisecond, cfg.Queue.PutTimeout())
		assert.Equal(t, []string{"a", "b"}, cfg.Hue.LightIDs)
		assert.Equal(t, []string{"01-01", "06-01"}, cfg.Clock.Periods)
		assert.True(t, cfg.JSONSupport)
		assert.Equal(t, 30, cfg.Clock.TwilightMinutes)
	})

	t.Run("should fail when an explicit file is missing", func(t *testing.T) {
		t.Parallel()

		_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.json"))

		assert.Error(t, err)
	})

	t.Run("should reject a topic base containing a separator", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `{ "topicBase": "a/b" }`)

		_, err := config.Load(viper.New(), path)

		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("should reject a malformed clock time", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, `{ "clock": { "sunriseMin": "7am" } }`)

		_, err := config.Load(viper.New(), path)

		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func Test_ParseGeoLocation(t *testing.T) {

	tests := []struct {
		name    string
		input   string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{name: "should parse a location", input: "51.5,-0.12", lat: 51.5, lng: -0.12},
		{name: "should allow spaces", input: " 10 , 20 ", lat: 10, lng: 20},
		{name: "should reject a single value", input: "51.5", wantErr: true},
		{name: "should reject a latitude out of range", input: "91,0", wantErr: true},
		{name: "should reject text", input: "north,east", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lat, lng, err := config.ParseGeoLocation(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, lat)
			assert.Equal(t, tt.lng, lng)
		})
	}
}
