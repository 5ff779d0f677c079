package eventstream_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelibin/luxman/internal/eventstream"
)

func Test_StreamFor(t *testing.T) {

	tests := []struct {
		topic   string
		stream  string
		wantErr bool
	}{
		{topic: "stat/cfg/lamp", stream: "cfg"},
		{topic: "stat/value/lamp", stream: "value"},
		{topic: "stat/boot/lamp", stream: "boot"},
		{topic: "set/value/lamp", wantErr: true},
		{topic: "stat/lux/lamp", wantErr: true},
		{topic: "stat/value", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run("should map "+tt.topic, func(t *testing.T) {
			t.Parallel()
			stream, err := eventstream.StreamFor(tt.topic)
			if tt.wantErr {
				assert.ErrorIs(t, err, eventstream.ErrUnknownStream)
				return
			}
			assert.Equal(t, tt.stream, stream)
		})
	}
}

func Test_Encode(t *testing.T) {

	t.Run("should pass JSON through", func(t *testing.T) {
		assert.Equal(t, `{"a":1}`, string(eventstream.Encode([]byte(`{"a":1}`))))
	})

	t.Run("should base64 binary payloads", func(t *testing.T) {
		assert.Equal(t, "AQID", string(eventstream.Encode([]byte{1, 2, 3})))
	})
}

func Test_Publish(t *testing.T) {

	t.Run("should deliver published messages to subscribers of the stream", func(t *testing.T) {
		// arrange
		logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
		s := eventstream.NewServer(logger)
		defer s.Close()
		srv := httptest.NewServer(s)
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?stream=value", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		// act
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ctx.Err() == nil {
				_ = s.Publish("stat/value/lamp", []byte(`{"idTrans":1}`))
				time.Sleep(20 * time.Millisecond)
			}
		}()

		// assert
		scanner := bufio.NewScanner(resp.Body)
		var data string
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				data = strings.TrimPrefix(line, "data: ")
				break
			}
		}
		assert.Equal(t, `{"idTrans":1}`, data)
		cancel()
		<-done
	})

	t.Run("should reject topics without a stream", func(t *testing.T) {
		logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
		s := eventstream.NewServer(logger)
		defer s.Close()

		assert.ErrorIs(t, s.Publish("set/cfg/lamp", nil), eventstream.ErrUnknownStream)
	})
}
