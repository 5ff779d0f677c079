package models

import "github.com/wheelibin/luxman/internal/constants"

type UpdateFlags uint32

const NotifyOnConfigChange UpdateFlags = 1 << 0

type EventFlags uint32

const (
	EventOutputOn EventFlags = 1 << iota
	EventOutputOff
	EventLevelChanged
)

const AllEvents = EventOutputOn | EventOutputOff | EventLevelChanged

// hardware output channels, combinable
type OutputMode uint32

const (
	OutputRelayNO OutputMode = 1 << iota
	OutputRelayNC
	OutputDALI
	OutputPWM
	OutputZeroTenVolt
)

// log verbosity, 0 silent to 5 verbose
type Verbosity uint8

const (
	VerbosityNone Verbosity = iota
	VerbosityError
	VerbosityWarn
	VerbosityInfo
	VerbosityDebug
	VerbosityVerbose
)

// a piecewise linear brightness curve; only applied with exactly CurveSampleCount samples
type Curve struct {
	Samples uint16
	Data    [constants.CurveSampleCount]int8
}

type OutputConfig struct {
	Mode       OutputMode
	Curve      Curve
	NumActions uint8
	Actions    [constants.MaxActions]Action
}

// the persisted configuration aggregate; copying a Config copies its action list
type Config struct {
	UpdateFlags UpdateFlags
	EventMask   EventFlags
	ALS         LuxWindow
	Output      OutputConfig
	Verbosity   Verbosity
}

// the live output state
type Status struct {
	Flags EventFlags
	Value uint8
}

type Boot struct {
	Config Config
	Status Status
}

// selects which Config fields a set request carries
type KeyMask uint32

const (
	KeyUpdateFlags KeyMask = 1 << iota
	KeyEventMask
	KeyALS
	KeyOutputMode
	KeyCurve
	KeyActions
	KeyVerbosity
)

const KeyAll KeyMask = 0x7F

func (k KeyMask) Has(key KeyMask) bool {
	return k&key != 0
}
