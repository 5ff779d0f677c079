package mqtt

import (
	"errors"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	"github.com/wheelibin/luxman/internal/config"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func newTestClient() *Client {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	return NewClient(logger, config.MQTTConfig{Broker: "tcp://127.0.0.1:1", ClientID: "test", QoS: 1})
}

func Test_BuildClientOptions(t *testing.T) {

	t.Run("should carry broker, identity and credentials", func(t *testing.T) {
		opts := BuildClientOptions(config.MQTTConfig{
			Broker:              "tcp://broker:1883",
			ClientID:            "luxman-1",
			Username:            "user",
			Password:            "pass",
			MaxReconnectSeconds: 30,
		})

		assert.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
		assert.Equal(t, "luxman-1", opts.ClientID)
		assert.Equal(t, "user", opts.Username)
		assert.Equal(t, "pass", opts.Password)
		assert.True(t, opts.AutoReconnect)
		assert.True(t, opts.CleanSession)
	})
}

func Test_ClientWithoutConnection(t *testing.T) {

	t.Run("should refuse to publish", func(t *testing.T) {
		t.Parallel()
		c := newTestClient()

		assert.False(t, c.IsConnected())
		assert.ErrorIs(t, c.Publish("stat/value/lamp", []byte{1}), ErrNotConnected)
	})

	t.Run("should validate before checking the connection", func(t *testing.T) {
		t.Parallel()
		c := newTestClient()

		assert.ErrorIs(t, c.Publish("", nil), ErrInvalidTopic)
		assert.ErrorIs(t, c.Subscribe("", func(string, []byte) error { return nil }), ErrInvalidTopic)
		assert.ErrorIs(t, c.Subscribe("set/+/lamp", nil), ErrSubscribeFailed)
	})
}

func Test_WrapHandler(t *testing.T) {

	t.Run("should pass topic and payload through", func(t *testing.T) {
		t.Parallel()
		c := newTestClient()
		var gotTopic string
		var gotPayload []byte

		c.wrapHandler(func(topic string, payload []byte) error {
			gotTopic, gotPayload = topic, payload
			return nil
		})(nil, fakeMessage{topic: "set/lux/lamp", payload: []byte{4, 0, 0, 0}})

		assert.Equal(t, "set/lux/lamp", gotTopic)
		assert.Equal(t, []byte{4, 0, 0, 0}, gotPayload)
	})

	t.Run("should survive handler errors and panics", func(t *testing.T) {
		t.Parallel()
		c := newTestClient()

		assert.NotPanics(t, func() {
			c.wrapHandler(func(string, []byte) error { return errors.New("bad") })(nil, fakeMessage{topic: "a"})
			c.wrapHandler(func(string, []byte) error { panic("boom") })(nil, fakeMessage{topic: "a"})
		})
	})
}
