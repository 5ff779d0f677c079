package hue

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/samber/lo"
)

// HueEventConsumer listens to the bridge event stream and reports changes
// made to lights by anything other than this process.
type HueEventConsumer struct {
	Logger *log.Logger

	client       *sse.Client
	eventChannel chan *sse.Event
}

func NewHueEventConsumer(logger *log.Logger, bridge string, appKey string) *HueEventConsumer {
	baseURL := bridge
	if !strings.Contains(bridge, "://") {
		baseURL = "https://" + bridge
	}

	client := sse.NewClient(strings.TrimSuffix(baseURL, "/") + "/eventstream/clip/v2")
	client.Connection.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	client.Headers["hue-application-key"] = appKey

	return &HueEventConsumer{Logger: logger, client: client}
}

// Subscribe calls onLightChanged with the id of every light mentioned in an
// update event until Unsubscribe is called.
func (h *HueEventConsumer) Subscribe(onLightChanged func(lightID string)) error {
	h.eventChannel = make(chan *sse.Event)

	h.client.OnConnect(func(_ *sse.Client) {
		h.Logger.Info("Connected to HUE bridge, listening for events...")
	})
	h.client.OnDisconnect(func(_ *sse.Client) {
		h.Logger.Info("Disconnected from HUE bridge")
	})

	if err := h.client.SubscribeChan("", h.eventChannel); err != nil {
		h.Logger.Error("error subscribing to light updates", "err", err)
		return err
	}

	go func() {
		for ev := range h.eventChannel {
			for _, id := range LightIDsFromEvent(ev.Data) {
				onLightChanged(id)
			}
		}
	}()
	return nil
}

func (h *HueEventConsumer) Unsubscribe() {
	h.Logger.Debug("Unsubscribe events")
	if h.eventChannel != nil {
		h.client.Unsubscribe(h.eventChannel)
	}
}

// LightIDsFromEvent extracts the ids of updated lights from one event stream
// message, which carries a list of events.
func LightIDsFromEvent(data []byte) []string {
	var events []HueEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil
	}

	ids := []string{}
	for _, ev := range events {
		if ev.Type != "update" {
			continue
		}
		ids = append(ids, lo.FilterMap(ev.Data, func(r HueEventResource, _ int) (string, bool) {
			return r.ID, r.Type == "light"
		})...)
	}
	return lo.Uniq(ids)
}
