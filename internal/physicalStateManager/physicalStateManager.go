package physicalstatemanager

import (
	"context"
	"errors"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/wheelibin/luxman/internal/concurrency"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/hue"
)

type hueApiService interface {
	UpdateLightLevel(lightID string, level uint8) error
	GetLight(id string) (hue.HueLight, error)
}

// PhysicalStateManager drives the configured lights to the latest requested
// level. Only the newest level matters, so pending levels are replaced rather
// than queued.
type PhysicalStateManager struct {
	logger        *log.Logger
	hueApiService hueApiService
	lightIDs      []string

	pending chan uint8
	current atomic.Uint32
}

func NewPhysicalStateManager(logger *log.Logger, hueApiService hueApiService, lightIDs []string) *PhysicalStateManager {
	return &PhysicalStateManager{
		logger:        logger,
		hueApiService: hueApiService,
		lightIDs:      lo.Uniq(lightIDs),
		pending:       make(chan uint8, 1),
	}
}

// SetLevel records level for the next apply and never blocks.
func (m *PhysicalStateManager) SetLevel(level uint8) {
	for {
		select {
		case m.pending <- level:
			return
		default:
		}
		// drop the stale level
		select {
		case <-m.pending:
		default:
		}
	}
}

// Run applies pending levels until ctx is cancelled.
func (m *PhysicalStateManager) Run(ctx context.Context) {
	m.logger.Debug("PhysicalStateManager.Run", "lights", len(m.lightIDs))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("PhysicalStateManager.Run: stop signal received")
			return
		case level := <-m.pending:
			m.current.Store(uint32(level))
			if err := m.SetAllLightsToLevel(level); err != nil {
				m.logger.Error("error updating lights", "level", level, "err", err)
			}
		}
	}
}

// Reassert queues the last applied level again when a managed light no longer
// shows it, e.g. after it was changed from a switch or app. Events caused by
// our own updates find the light at the current level and are ignored.
func (m *PhysicalStateManager) Reassert(lightID string) {
	if !lo.Contains(m.lightIDs, lightID) {
		return
	}
	level := uint8(m.current.Load())
	light, err := m.hueApiService.GetLight(lightID)
	if err != nil {
		m.logger.Warn("unable to read light state, reasserting", "id", lightID, "err", err)
	} else if LightAtLevel(light, level) {
		return
	}
	m.logger.Debug("light changed externally, reasserting", "id", lightID, "level", level)
	select {
	case m.pending <- level:
	default:
	}
}

func (m *PhysicalStateManager) SetAllLightsToLevel(level uint8) error {
	if len(m.lightIDs) == 0 {
		m.logger.Info("output level", "level", level)
		return nil
	}

	tw := concurrency.NewThrottledWorker(constants.OutputThrottleInterval, func(lightID string) error {
		return m.SetLightToLevel(lightID, level)
	})
	return tw.Run(m.lightIDs)
}

func (m *PhysicalStateManager) SetLightToLevel(lightID string, level uint8) error {
	err := m.hueApiService.UpdateLightLevel(lightID, level)
	if errors.Is(err, hue.ErrUnreachable) {
		m.logger.Warn("light unreachable, skipping", "id", lightID)
		return nil
	}
	return err
}

// LightAtLevel reports whether light shows level: off for 0, otherwise on at
// level percent brightness.
func LightAtLevel(light hue.HueLight, level uint8) bool {
	if level == 0 {
		return !light.On.On
	}
	return light.On.On && int(math.Round(light.Dimming.Brightness)) == int(level)
}
