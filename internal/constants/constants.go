package constants

import "time"

// scheduling
const MaxActions = 20
const CurveSampleCount = 11
const MaxOutputValue = 100
const MinutesPerDay = 24 * 60
const MaxVerbosity = 5

// mailbox
const DefaultQueueSize = 16
const DefaultPutTimeout = 200 * time.Millisecond

// local clock producer
const TimeUpdateInterval = 20 * time.Second
const DefaultTwilightWindow = 30 * time.Minute

// physical output
const OutputThrottleInterval = 100 * time.Millisecond

// topic classes, combined with the configured base as "<prefix>/<base>"
const TopicSetConfig = "set/cfg"
const TopicSetValue = "set/value"
const TopicSetLux = "set/lux"
const TopicSetTime = "set/time"
const TopicGetConfig = "get/cfg"
const TopicGetValue = "get/value"
const TopicGetBoot = "get/boot"
const TopicStatConfig = "stat/cfg"
const TopicStatValue = "stat/value"
const TopicStatBoot = "stat/boot"

// persisted parameter names
const ParamUpdateFlags = "cfg.upd"
const ParamEventMask = "cfg.evt"
const ParamALS = "cfg.als"
const ParamOutputMode = "cfg.outm"
const ParamCurve = "cfg.curve"
const ParamNumActions = "cfg.nact"
const ParamVerbosity = "cfg.verb"
const ParamChecksum = "cfg.crc"
const ParamActionPrefix = "act."
