package lightmanager

import "github.com/wheelibin/luxman/internal/models"

// Event is a unit of work for the manager's mailbox.
type Event interface {
	Kind() string
}

type ConfigSetEvent struct{ Request models.ConfigSetRequest }
type ValueSetEvent struct{ Request models.ValueSetRequest }
type ConfigGetEvent struct{ Request models.GetRequest }
type ValueGetEvent struct{ Request models.GetRequest }
type BootGetEvent struct{}
type LuxUpdateEvent struct{ Lux uint32 }
type TimeUpdateEvent struct{ Snapshot models.TimeSnapshot }

// BacktestEvent drives the output to whatever the schedule says should be in
// effect at the snapshot, e.g. after a restart.
type BacktestEvent struct{ Snapshot models.TimeSnapshot }

func (ConfigSetEvent) Kind() string  { return "config_set" }
func (ValueSetEvent) Kind() string   { return "value_set" }
func (ConfigGetEvent) Kind() string  { return "config_get" }
func (ValueGetEvent) Kind() string   { return "value_get" }
func (BootGetEvent) Kind() string    { return "boot_get" }
func (LuxUpdateEvent) Kind() string  { return "lux_update" }
func (TimeUpdateEvent) Kind() string { return "time_update" }
func (BacktestEvent) Kind() string   { return "backtest" }
