package eventstream

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/samber/lo"
)

var ErrUnknownStream = errors.New("no stream for topic")

// stream ids, one per outbound topic class
var Streams = []string{"cfg", "value", "boot"}

// Server mirrors published status messages to server-sent-event clients.
// Binary payloads are sent base64 encoded since events are text.
type Server struct {
	logger *log.Logger
	server *sse.Server
}

func NewServer(logger *log.Logger) *Server {
	server := sse.New()
	server.AutoReplay = false
	for _, s := range Streams {
		server.CreateStream(s)
	}
	return &Server{logger: logger, server: server}
}

// StreamFor maps "stat/<class>/<base>" onto its stream id.
func StreamFor(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "stat" || !lo.Contains(Streams, parts[1]) {
		return "", fmt.Errorf("%w: %s", ErrUnknownStream, topic)
	}
	return parts[1], nil
}

// Encode returns JSON payloads as they are and anything else as base64.
func Encode(payload []byte) []byte {
	if len(payload) > 0 && (payload[0] == '{' || payload[0] == '[') {
		return payload
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(payload)))
	base64.StdEncoding.Encode(out, payload)
	return out
}

func (s *Server) Publish(topic string, payload []byte) error {
	stream, err := StreamFor(topic)
	if err != nil {
		return err
	}
	s.server.Publish(stream, &sse.Event{Event: []byte(topic), Data: Encode(payload)})
	return nil
}

// ServeHTTP serves /events?stream=<cfg|value|boot>.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("event stream client connected", "stream", r.URL.Query().Get("stream"), "remote", r.RemoteAddr)
	s.server.ServeHTTP(w, r)
}

func (s *Server) Close() {
	s.server.Close()
}
