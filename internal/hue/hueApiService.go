package hue

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var ErrUnreachable = errors.New("unreachable")
var ErrRequestFailed = errors.New("hue request failed")

type HueAPIService struct {
	logger  *log.Logger
	baseURL string
	appKey  string
	client  *http.Client
}

// NewHueAPIService talks to the bridge at bridge, either a bare address or a
// full base URL.
func NewHueAPIService(logger *log.Logger, bridge string, appKey string) *HueAPIService {
	baseURL := bridge
	if !strings.Contains(bridge, "://") {
		baseURL = "https://" + bridge
	}

	// bridges serve a self signed certificate
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	return &HueAPIService{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		appKey:  appKey,
		client:  &http.Client{Transport: tr, Timeout: 5 * time.Second},
	}
}

func (h *HueAPIService) GET(url string) ([]byte, error) {
	return h.makeRequest(http.MethodGet, url, nil)
}

func (h *HueAPIService) PUT(url string, body []byte) ([]byte, error) {
	return h.makeRequest(http.MethodPut, url, body)
}

func (h *HueAPIService) GetLight(id string) (HueLight, error) {
	body, err := h.GET(fmt.Sprintf("/clip/v2/resource/light/%s", id))
	if err != nil {
		return HueLight{}, fmt.Errorf("error reading light %s from hue bridge: %w", id, err)
	}

	resp := LightResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return HueLight{}, fmt.Errorf("error parsing light response: %w", err)
	}
	if len(resp.Data) == 0 {
		return HueLight{}, fmt.Errorf("%w: light %s not found", ErrRequestFailed, id)
	}
	return resp.Data[0], nil
}

// UpdateLightLevel switches the light off at level 0, otherwise on at level
// percent brightness.
func (h *HueAPIService) UpdateLightLevel(lightID string, level uint8) error {
	h.logger.Debug("updating light", "id", lightID, "level", level)

	var requestBody []byte
	if level > 0 {
		requestBody = []byte(fmt.Sprintf(`{ "dimming": { "brightness": %d }, "on": { "on": true } }`, min(level, 100)))
	} else {
		requestBody = []byte(`{ "on": { "on": false } }`)
	}

	body, err := h.PUT(fmt.Sprintf("/clip/v2/resource/light/%s", lightID), requestBody)
	if err != nil {
		return err
	}

	resp := LightResponse{}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("error parsing light update response: %w", err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Errors[0].Description)
	}
	return nil
}

func (h *HueAPIService) makeRequest(verb string, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(verb, h.baseURL+url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("hue-application-key", h.appKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusMultiStatus:
		// the bridge accepted the request but could not reach the light
		return nil, ErrUnreachable
	default:
		h.logger.Error("Error making Hue API call", "url", url, "status", resp.Status)
		return nil, fmt.Errorf("%w: %s %s: %s", ErrRequestFailed, verb, url, resp.Status)
	}
}
