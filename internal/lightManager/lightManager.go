package lightmanager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wheelibin/luxman/internal/codec"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/curve"
	"github.com/wheelibin/luxman/internal/models"
	"github.com/wheelibin/luxman/internal/schedule"
	"github.com/wheelibin/luxman/internal/store"
	"github.com/wheelibin/luxman/internal/telemetry"
)

var ErrQueueFull = errors.New("mailbox full, message dropped")
var ErrUnknownTopic = errors.New("unknown topic")

type State int32

const (
	StateUninitialized State = iota
	StateRestoring
	StateReady
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

type configStore interface {
	Save(cfg models.Config) error
	Restore() (models.Config, error)
}

type publisher interface {
	Publish(topic string, payload []byte) error
}

type outputDriver interface {
	SetLevel(level uint8)
}

type Options struct {
	// topic base shared by every inbound and outbound topic
	Base       string
	QueueSize  int
	PutTimeout time.Duration
	Codec      codec.Codec
	Metrics    *telemetry.Metrics
	// set the logger level from the configured verbosity
	FollowVerbosity bool
}

// Manager owns the configuration and output status. Producers post into a
// bounded mailbox from any goroutine; a single consumer (Run) handles events
// one at a time, so no state is shared.
type Manager struct {
	logger    *log.Logger
	store     configStore
	publisher publisher
	driver    outputDriver
	codec     codec.Codec
	metrics   *telemetry.Metrics

	base            string
	putTimeout      time.Duration
	followVerbosity bool
	mailbox         chan Event
	state           atomic.Int32

	cfg       models.Config
	status    models.Status
	scheduler *schedule.Scheduler
}

func NewManager(logger *log.Logger, store configStore, publisher publisher, driver outputDriver, opts Options) *Manager {
	if opts.QueueSize <= 0 {
		opts.QueueSize = constants.DefaultQueueSize
	}
	if opts.PutTimeout <= 0 {
		opts.PutTimeout = constants.DefaultPutTimeout
	}
	if opts.Codec == nil {
		opts.Codec = codec.New(false, time.Local)
	}

	m := &Manager{
		logger:          logger,
		store:           store,
		publisher:       publisher,
		driver:          driver,
		codec:           opts.Codec,
		metrics:         opts.Metrics,
		base:            opts.Base,
		putTimeout:      opts.PutTimeout,
		followVerbosity: opts.FollowVerbosity,
		mailbox:         make(chan Event, opts.QueueSize),
	}
	// the scheduler works on the live action list
	m.scheduler = schedule.NewScheduler(logger, m.cfg.Output.Actions[:])
	return m
}

// DefaultConfig is the compiled-in configuration used when nothing valid is stored.
func DefaultConfig() models.Config {
	cfg := models.Config{
		UpdateFlags: models.NotifyOnConfigChange,
		EventMask:   models.AllEvents,
		Verbosity:   models.VerbosityDebug,
		Output: models.OutputConfig{
			Mode:  models.OutputRelayNO | models.OutputPWM,
			Curve: models.Curve{Samples: 3, Data: [constants.CurveSampleCount]int8{0, 50, 100}},
		},
	}
	s := schedule.NewScheduler(log.Default(), cfg.Output.Actions[:])
	s.ClearAll()
	cfg.Output.NumActions = s.CountConfigured()
	return cfg
}

func Topic(class, base string) string {
	return class + "/" + base
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// Config returns a copy of the live configuration. Owner goroutine only.
func (m *Manager) Config() models.Config {
	return m.cfg
}

// Status returns the live status. Owner goroutine only.
func (m *Manager) Status() models.Status {
	return m.status
}

// Start restores the persisted configuration, falling back to (and saving)
// the defaults when anything about it is wrong, and resets the output to off.
func (m *Manager) Start() {
	m.state.Store(int32(StateRestoring))
	m.logger.Debug("LightManager.Start: restoring configuration")

	result := "ok"
	cfg, err := m.store.Restore()
	if err == nil {
		m.cfg = cfg
		err = validateConfig(m.cfg, m.scheduler)
	}
	if err != nil {
		switch {
		case errors.Is(err, store.ErrChecksumMismatch):
			result = "checksum_mismatch"
		case errors.Is(err, schedule.ErrIntegrityFailed), errors.Is(err, errConfigRange):
			result = "integrity_failed"
		default:
			result = "restore_failed"
		}
		m.logger.Warn("stored configuration rejected, using defaults", "reason", result, "err", err)
		m.cfg = DefaultConfig()
		m.save()
	} else {
		m.logger.Info("configuration restored", "actions", m.cfg.Output.NumActions, "checksum", store.Checksum(m.cfg))
		m.applyVerbosity()
		m.metrics.ConfigChecksum(store.Checksum(m.cfg))
	}
	m.metrics.Restored(result)

	m.status = models.Status{}
	m.pushOutput(0)

	m.state.Store(int32(StateReady))
}

// Post is the transport callback: it decodes payload according to topic and
// queues the resulting event.
func (m *Manager) Post(topic string, payload []byte) error {
	ev, err := m.decode(topic, payload)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, ErrUnknownTopic) {
			reason = "unknown_topic"
		}
		m.logger.Warn("dropping message", "topic", topic, "size", len(payload), "err", err)
		m.metrics.MessageDropped(reason)
		return err
	}
	return m.Dispatch(ev)
}

func (m *Manager) decode(topic string, payload []byte) (Event, error) {
	parts := strings.SplitN(topic, "/", 3)
	if len(parts) != 3 || parts[2] != m.base {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	switch class := parts[0] + "/" + parts[1]; class {
	case constants.TopicSetConfig:
		req, err := m.codec.DecodeConfigSet(payload)
		return ConfigSetEvent{Request: req}, err
	case constants.TopicSetValue:
		req, err := m.codec.DecodeValueSet(payload)
		return ValueSetEvent{Request: req}, err
	case constants.TopicSetLux:
		lux, err := m.codec.DecodeLux(payload)
		return LuxUpdateEvent{Lux: lux}, err
	case constants.TopicSetTime:
		snap, err := m.codec.DecodeTime(payload)
		return TimeUpdateEvent{Snapshot: snap}, err
	case constants.TopicGetConfig:
		req, err := m.codec.DecodeGet(payload)
		return ConfigGetEvent{Request: req}, err
	case constants.TopicGetValue:
		req, err := m.codec.DecodeGet(payload)
		return ValueGetEvent{Request: req}, err
	case constants.TopicGetBoot:
		return BootGetEvent{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}
}

// Dispatch queues an already decoded event, waiting at most the put timeout.
func (m *Manager) Dispatch(ev Event) error {
	timer := time.NewTimer(m.putTimeout)
	defer timer.Stop()

	select {
	case m.mailbox <- ev:
		return nil
	case <-timer.C:
		m.logger.Error("mailbox full, dropping event", "kind", ev.Kind())
		m.metrics.MessageDropped("queue_full")
		return ErrQueueFull
	}
}

// Run consumes the mailbox until ctx is cancelled, starting the manager first
// if that has not happened yet.
func (m *Manager) Run(ctx context.Context) {
	m.logger.Debug("LightManager.Run")
	if m.State() == StateUninitialized {
		m.Start()
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("LightManager.Run: stop signal received")
			return
		case ev := <-m.mailbox:
			m.HandleEvent(ev)
		}
	}
}

// HandleEvent processes a single event. It must only be called from the
// goroutine that owns the manager.
func (m *Manager) HandleEvent(ev Event) {
	if m.State() != StateReady {
		m.logger.Warn("event received before ready, ignoring", "kind", ev.Kind(), "state", m.State())
		return
	}

	start := time.Now()
	code := models.CodeOK

	switch e := ev.(type) {
	case ConfigSetEvent:
		code = m.handleConfigSet(e.Request)
	case ValueSetEvent:
		code = m.handleValueSet(e.Request)
	case ConfigGetEvent:
		code = e.Request.Err
		m.publishConfig(models.ConfigResponse{IDTrans: e.Request.IDTrans, Err: code, Config: m.cfg})
	case ValueGetEvent:
		code = e.Request.Err
		// event flags describe transitions and are not reported on query
		m.publishStatus(models.StatusResponse{IDTrans: e.Request.IDTrans, Err: code, Status: models.Status{Value: m.status.Value}})
	case BootGetEvent:
		m.publishBoot()
	case TimeUpdateEvent:
		if out, ok := m.scheduler.EvaluateTime(e.Snapshot); ok {
			m.applyAndNotify(out)
		}
	case LuxUpdateEvent:
		if out, ok := m.scheduler.EvaluateLux(e.Lux); ok {
			m.applyAndNotify(out)
		}
	case BacktestEvent:
		if a, ok := m.scheduler.FindCurrentAction(models.FlagsTimeTriggers, e.Snapshot); ok && a.Output >= 0 {
			m.logger.Info("restoring scheduled output", "id", a.ID, "output", a.Output)
			m.applyAndNotify(a.Output)
		}
	default:
		m.logger.Error("unhandled event", "kind", ev.Kind())
		return
	}

	m.metrics.EventHandled(ev.Kind(), code.String(), time.Since(start))
}

func (m *Manager) handleConfigSet(req models.ConfigSetRequest) models.ErrorCode {
	code := req.Err
	if code == models.CodeOK && req.Keys&models.KeyAll == 0 {
		code = models.CodeEmptyContent
	}

	var staged models.Config
	if code == models.CodeOK {
		staged, code = m.merge(req)
	}
	if code != models.CodeOK {
		m.logger.Warn("configuration update rejected", "idTrans", req.IDTrans, "code", code)
		m.publishConfig(models.ConfigResponse{IDTrans: req.IDTrans, Err: code, Config: m.cfg})
		return code
	}

	m.cfg = staged
	m.save()
	m.logger.Info("configuration updated", "idTrans", req.IDTrans, "keys", fmt.Sprintf("%#x", uint32(req.Keys)))

	if m.cfg.UpdateFlags&models.NotifyOnConfigChange != 0 {
		m.publishConfig(models.ConfigResponse{IDTrans: req.IDTrans, Err: models.CodeOK, Config: m.cfg})
	}
	return code
}

// merge applies the keyed fields of req to a copy of the live configuration
// and validates the result; the live configuration is not touched.
func (m *Manager) merge(req models.ConfigSetRequest) (models.Config, models.ErrorCode) {
	staged := m.cfg
	in := req.Config

	if req.Keys.Has(models.KeyUpdateFlags) {
		staged.UpdateFlags = in.UpdateFlags
	}
	if req.Keys.Has(models.KeyEventMask) {
		staged.EventMask = in.EventMask
	}
	if req.Keys.Has(models.KeyALS) {
		staged.ALS = in.ALS
	}
	if req.Keys.Has(models.KeyOutputMode) {
		staged.Output.Mode = in.Output.Mode
	}
	if req.Keys.Has(models.KeyCurve) {
		staged.Output.Curve = in.Output.Curve
	}
	if req.Keys.Has(models.KeyVerbosity) {
		staged.Verbosity = in.Verbosity
	}

	s := schedule.NewScheduler(m.logger, staged.Output.Actions[:])
	if req.Keys.Has(models.KeyActions) {
		n := int(in.Output.NumActions)
		if n > constants.MaxActions {
			return m.cfg, models.CodeRangeValue
		}
		for _, a := range in.Output.Actions[:n] {
			if err := s.SetAction(int(a.ID), a); err != nil {
				return m.cfg, models.CodeIndexOutOfRange
			}
			if err := schedule.CheckAction(a); err != nil {
				m.logger.Warn("action rejected", "id", a.ID, "err", err)
				return m.cfg, models.CodeIntegrityFailed
			}
		}
		staged.Output.NumActions = uint8(n)
	}

	if err := validateConfig(staged, s); err != nil {
		if errors.Is(err, schedule.ErrIntegrityFailed) {
			return m.cfg, models.CodeIntegrityFailed
		}
		return m.cfg, models.CodeRangeValue
	}
	return staged, models.CodeOK
}

var errConfigRange = errors.New("configuration field out of range")

// validateConfig checks cfg, whose action list s must wrap.
func validateConfig(cfg models.Config, s *schedule.Scheduler) error {
	if cfg.Output.Curve.Samples > constants.CurveSampleCount {
		return fmt.Errorf("%w: curve samples %d", errConfigRange, cfg.Output.Curve.Samples)
	}
	if cfg.Output.NumActions > constants.MaxActions {
		return fmt.Errorf("%w: numActions %d", errConfigRange, cfg.Output.NumActions)
	}
	if cfg.Verbosity > constants.MaxVerbosity {
		return fmt.Errorf("%w: verbosity %d", errConfigRange, cfg.Verbosity)
	}
	return s.CheckIntegrity()
}

func (m *Manager) handleValueSet(req models.ValueSetRequest) models.ErrorCode {
	code := req.Err
	if code == models.CodeOK && (req.Value < 0 || req.Value > constants.MaxOutputValue) {
		code = models.CodeRangeValue
	}
	if code == models.CodeOK {
		m.setOutput(uint8(req.Value))
	} else {
		m.logger.Warn("output value rejected", "idTrans", req.IDTrans, "value", req.Value, "code", code)
	}

	m.publishStatus(models.StatusResponse{IDTrans: req.IDTrans, Err: code, Status: m.status})
	return code
}

// applyAndNotify drives the output for a scheduler decision. Unlike an
// explicit value set it does nothing when the level is unchanged.
func (m *Manager) applyAndNotify(value int8) {
	level := uint8(min(max(value, 0), constants.MaxOutputValue))
	if level == m.status.Value {
		return
	}
	m.setOutput(level)

	payload, err := m.codec.EncodeNotification(models.Notification{Timestamp: time.Now().Unix(), Status: m.status})
	if err != nil {
		m.logger.Error("error encoding notification", "err", err)
		return
	}
	m.publish(constants.TopicStatValue, payload)
}

func classify(value uint8) models.EventFlags {
	switch value {
	case 0:
		return models.EventOutputOff
	case constants.MaxOutputValue:
		return models.EventOutputOn
	default:
		return models.EventLevelChanged
	}
}

func (m *Manager) setOutput(value uint8) {
	m.status = models.Status{Flags: classify(value), Value: value}
	m.pushOutput(value)
}

func (m *Manager) pushOutput(value uint8) {
	level := curve.Apply(m.cfg.Output.Curve, value)
	m.logger.Debug("setting output", "value", value, "level", level)
	m.driver.SetLevel(level)
	m.metrics.OutputLevel(level)
}

func (m *Manager) save() {
	if err := m.store.Save(m.cfg); err != nil {
		m.logger.Error("configuration not fully saved", "err", err)
	}
	m.metrics.ConfigChecksum(store.Checksum(m.cfg))
	m.applyVerbosity()
}

func (m *Manager) applyVerbosity() {
	if !m.followVerbosity {
		return
	}
	m.logger.SetLevel(LevelFor(m.cfg.Verbosity))
}

// LevelFor maps a configured verbosity onto a logger level.
func LevelFor(v models.Verbosity) log.Level {
	switch v {
	case models.VerbosityNone:
		return log.FatalLevel
	case models.VerbosityError:
		return log.ErrorLevel
	case models.VerbosityWarn:
		return log.WarnLevel
	case models.VerbosityInfo:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

func (m *Manager) publishConfig(r models.ConfigResponse) {
	payload, err := m.codec.EncodeConfigResponse(r)
	if err != nil {
		m.logger.Error("error encoding config response", "err", err)
		return
	}
	m.publish(constants.TopicStatConfig, payload)
}

func (m *Manager) publishStatus(r models.StatusResponse) {
	payload, err := m.codec.EncodeStatusResponse(r)
	if err != nil {
		m.logger.Error("error encoding status response", "err", err)
		return
	}
	m.publish(constants.TopicStatValue, payload)
}

func (m *Manager) publishBoot() {
	payload, err := m.codec.EncodeBoot(models.Boot{Config: m.cfg, Status: m.status})
	if err != nil {
		m.logger.Error("error encoding boot snapshot", "err", err)
		return
	}
	m.publish(constants.TopicStatBoot, payload)
}

func (m *Manager) publish(class string, payload []byte) {
	topic := Topic(class, m.base)
	if err := m.publisher.Publish(topic, payload); err != nil {
		m.logger.Error("error publishing", "topic", topic, "err", err)
	}
}
