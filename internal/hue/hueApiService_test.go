package hue_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelibin/luxman/internal/hue"
)

type capturedRequest struct {
	method string
	path   string
	key    string
	body   string
}

func newBridge(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	captured := &capturedRequest{}
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*captured = capturedRequest{method: r.Method, path: r.URL.Path, key: r.Header.Get("hue-application-key"), body: string(b)}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func Test_UpdateLightLevel(t *testing.T) {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})

	t.Run("should switch the light on at the level", func(t *testing.T) {
		t.Parallel()
		// arrange
		srv, captured := newBridge(t, http.StatusOK, `{"errors":[],"data":[{"rid":"l1","rtype":"light"}]}`)
		h := hue.NewHueAPIService(logger, srv.URL, "secret")

		// act
		err := h.UpdateLightLevel("l1", 42)

		// assert
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, captured.method)
		assert.Equal(t, "/clip/v2/resource/light/l1", captured.path)
		assert.Equal(t, "secret", captured.key)
		assert.JSONEq(t, `{"dimming":{"brightness":42},"on":{"on":true}}`, captured.body)
	})

	t.Run("should switch the light off at zero", func(t *testing.T) {
		t.Parallel()
		srv, captured := newBridge(t, http.StatusOK, `{"errors":[],"data":[]}`)
		h := hue.NewHueAPIService(logger, srv.URL, "secret")

		err := h.UpdateLightLevel("l1", 0)

		require.NoError(t, err)
		assert.JSONEq(t, `{"on":{"on":false}}`, captured.body)
	})

	t.Run("should report an unreachable light", func(t *testing.T) {
		t.Parallel()
		srv, _ := newBridge(t, http.StatusMultiStatus, `{}`)
		h := hue.NewHueAPIService(logger, srv.URL, "secret")

		err := h.UpdateLightLevel("l1", 10)

		assert.ErrorIs(t, err, hue.ErrUnreachable)
	})

	t.Run("should fail on an error status", func(t *testing.T) {
		t.Parallel()
		srv, _ := newBridge(t, http.StatusForbidden, `{}`)
		h := hue.NewHueAPIService(logger, srv.URL, "wrong")

		err := h.UpdateLightLevel("l1", 10)

		assert.ErrorIs(t, err, hue.ErrRequestFailed)
	})

	t.Run("should fail when the bridge reports errors", func(t *testing.T) {
		t.Parallel()
		srv, _ := newBridge(t, http.StatusOK, `{"errors":[{"description":"device not found"}],"data":[]}`)
		h := hue.NewHueAPIService(logger, srv.URL, "secret")

		err := h.UpdateLightLevel("l1", 10)

		assert.ErrorIs(t, err, hue.ErrRequestFailed)
		assert.ErrorContains(t, err, "device not found")
	})
}

func Test_GetLight(t *testing.T) {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})

	t.Run("should return the light", func(t *testing.T) {
		t.Parallel()
		srv, captured := newBridge(t, http.StatusOK,
			`{"errors":[],"data":[{"id":"l1","metadata":{"name":"porch","archetype":"wall_lantern"},"on":{"on":true},"dimming":{"brightness":55.5}}]}`)
		h := hue.NewHueAPIService(logger, srv.URL, "secret")

		light, err := h.GetLight("l1")

		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, captured.method)
		assert.Equal(t, "porch", light.Metadata.Name)
		assert.True(t, light.On.On)
		assert.Equal(t, 55.5, light.Dimming.Brightness)
	})

	t.Run("should fail when the light is missing", func(t *testing.T) {
		t.Parallel()
		srv, _ := newBridge(t, http.StatusOK, `{"errors":[],"data":[]}`)
		h := hue.NewHueAPIService(logger, srv.URL, "secret")

		_, err := h.GetLight("l1")

		assert.ErrorIs(t, err, hue.ErrRequestFailed)
	})
}

func Test_LightIDsFromEvent(t *testing.T) {

	tests := []struct {
		name     string
		data     string
		expected []string
	}{
		{
			name:     "should return updated lights once each",
			data:     `[{"type":"update","data":[{"id":"l1","type":"light"},{"id":"g1","type":"grouped_light"},{"id":"l1","type":"light"}]},{"type":"update","data":[{"id":"l2","type":"light"}]}]`,
			expected: []string{"l1", "l2"},
		},
		{
			name:     "should ignore other event types",
			data:     `[{"type":"add","data":[{"id":"l1","type":"light"}]}]`,
			expected: []string{},
		},
		{
			name:     "should ignore payloads that are not events",
			data:     `: hi`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, hue.LightIDsFromEvent([]byte(tt.data)))
		})
	}
}
