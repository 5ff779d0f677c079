package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/wheelibin/luxman/internal/codec"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
)

const backgroundColor = "#011922"
const headerBackgroundColor = "#1e7ba0"

type StatusMsg struct {
	Status models.Status
	At     time.Time
}

type ConfigMsg struct {
	Config models.Config
}

type BootMsg struct {
	Config models.Config
	Status StatusMsg
}

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#ffffff")).
	Background(lipgloss.Color(headerBackgroundColor)).
	Padding(0, 1)

var bodyStyle = lipgloss.NewStyle().
	Background(lipgloss.Color(backgroundColor)).
	Padding(0, 1)

// Monitor shows the live status and action list of one luminaire.
type Monitor struct {
	teaProgram *tea.Program
	json       *codec.JSON
	binary     *codec.Binary
}

func NewMonitor(base string) *Monitor {
	return &Monitor{
		teaProgram: tea.NewProgram(NewModel(base), tea.WithAltScreen()),
		json:       codec.NewJSON(time.Local),
		binary:     codec.NewBinary(time.Local),
	}
}

// Run blocks until the user quits.
func (t *Monitor) Run() error {
	_, err := t.teaProgram.Run()
	return err
}

func (t *Monitor) Quit() {
	t.teaProgram.Quit()
}

// HandleMessage decodes a status topic message and refreshes the view.
func (t *Monitor) HandleMessage(topic string, payload []byte) error {
	msg, err := Decode(t.json, t.binary, topic, payload)
	if err != nil {
		return err
	}
	t.teaProgram.Send(msg)
	return nil
}

// Decode turns a stat topic message into view updates. Status responses and
// notifications both carry the status last, so either decodes as a response.
func Decode(j *codec.JSON, b *codec.Binary, topic string, payload []byte) (tea.Msg, error) {
	isJSON := len(payload) > 0 && payload[0] == '{'
	class := topic[:max(strings.LastIndex(topic, "/"), 0)]

	switch class {
	case constants.TopicStatValue:
		var r models.StatusResponse
		var err error
		if isJSON {
			r, err = j.DecodeStatusResponse(payload)
		} else {
			r, err = b.DecodeStatusResponse(payload)
		}
		if err != nil {
			return nil, err
		}
		return StatusMsg{Status: r.Status, At: time.Now()}, nil

	case constants.TopicStatConfig:
		var r models.ConfigResponse
		var err error
		if isJSON {
			r, err = j.DecodeConfigResponse(payload)
		} else {
			r, err = b.DecodeConfigResponse(payload)
		}
		if err != nil {
			return nil, err
		}
		return ConfigMsg{Config: r.Config}, nil

	case constants.TopicStatBoot:
		var boot models.Boot
		var err error
		if isJSON {
			boot, err = j.DecodeBoot(payload)
		} else {
			boot, err = b.DecodeBoot(payload)
		}
		if err != nil {
			return nil, err
		}
		return BootMsg{Config: boot.Config, Status: StatusMsg{Status: boot.Status, At: time.Now()}}, nil

	default:
		return nil, fmt.Errorf("unexpected topic %s", topic)
	}
}

type Model struct {
	base    string
	table   table.Model
	status  models.Status
	updated time.Time
}

func NewModel(base string) *Model {
	columns := []table.Column{
		{Title: "ID", Width: 4},
		{Title: "Trigger", Width: 22},
		{Title: "Filter", Width: 26},
		{Title: "Output", Width: 8},
		{Title: "Latched", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(constants.MaxActions/2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return &Model{base: base, table: t}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case BootMsg:
		m.status = msg.Status.Status
		m.updated = msg.Status.At
		m.table.SetRows(ActionRows(msg.Config))
		m.table.UpdateViewport()

	case StatusMsg:
		m.status = msg.Status
		m.updated = msg.At

	case ConfigMsg:
		m.table.SetRows(ActionRows(msg.Config))
		m.table.UpdateViewport()
	}

	return m, nil
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("luxman: %s", m.base))
	status := bodyStyle.Render(StatusLine(m.status, m.updated))
	return header + "\n" + status + "\n" + baseStyle.Render(m.table.View()) + "\n"
}

func StatusLine(s models.Status, at time.Time) string {
	if at.IsZero() {
		return "waiting for status..."
	}
	flags := []string{}
	if s.Flags&models.EventOutputOn != 0 {
		flags = append(flags, "on")
	}
	if s.Flags&models.EventOutputOff != 0 {
		flags = append(flags, "off")
	}
	if s.Flags&models.EventLevelChanged != 0 {
		flags = append(flags, "level changed")
	}
	return fmt.Sprintf("output %d%%  [%s]  updated %s", s.Value, strings.Join(flags, ", "), at.Format("15:04:05"))
}

// ActionRows lists the configured actions, skipping empty slots.
func ActionRows(cfg models.Config) []table.Row {
	return lo.FilterMap(cfg.Output.Actions[:], func(a models.Action, _ int) (table.Row, bool) {
		if !a.Enabled() {
			return nil, false
		}
		output := "disabled"
		if a.Output >= 0 {
			output = fmt.Sprintf("%d%%", a.Output)
		}
		return table.Row{
			fmt.Sprint(a.ID),
			describeTrigger(a.Trigger),
			describeFilter(a.Filter),
			output,
			fmt.Sprint(a.ALSActive),
		}, true
	})
}

func describeTrigger(t models.Trigger) string {
	switch t.Kind {
	case models.TriggerFixedTime:
		return fmt.Sprintf("at %02d:%02d", t.Minutes/60, t.Minutes%60)
	case models.TriggerDawn:
		return fmt.Sprintf("dawn %+dm", t.Correction)
	case models.TriggerDusk:
		return fmt.Sprintf("dusk %+dm", t.Correction)
	case models.TriggerALS:
		return fmt.Sprintf("lux %d-%d ±%d", t.Lux.Min, t.Lux.Max, t.Lux.Threshold)
	default:
		return "-"
	}
}

func describeFilter(f models.Filter) string {
	days := lo.FilterMap([]time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday},
		func(d time.Weekday, _ int) (string, bool) { return d.String()[:2], f.Weekdays.Has(d) })

	parts := []string{}
	if len(days) > 0 {
		parts = append(parts, strings.Join(days, ""))
	}
	if f.Periods != 0 && f.Periods != models.AllPeriods {
		parts = append(parts, fmt.Sprintf("periods %08b", uint8(f.Periods)))
	}
	if f.HasDate {
		parts = append(parts, fmt.Sprintf("%02d/%02d", f.Date.Day, int(f.Date.Month)))
	}
	return strings.Join(parts, " ")
}
