package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
)

// fixed little endian layouts, no padding

type binConfig struct {
	UpdateFlags uint32
	EventMask   uint32
	ALS         models.LuxWindow
	Mode        uint32
	Curve       models.Curve
	NumActions  uint8
	Actions     [constants.MaxActions]models.PackedAction
	Verbosity   uint32
}

type binStatus struct {
	Flags uint32
	Value uint8
}

type binConfigSet struct {
	IDTrans uint32
	Keys    uint32
	Config  binConfig
}

type binValueSet struct {
	IDTrans uint32
	Status  binStatus
}

type binGet struct {
	IDTrans uint32
}

type binLux struct {
	Lux uint32
}

type binTime struct {
	Now            int64
	Period         uint8
	DawnStart      uint16
	DawnEnd        uint16
	DuskStart      uint16
	DuskEnd        uint16
	ReductionStart uint16
	ReductionEnd   uint16
	Latitude       float64
	Longitude      float64
}

type binConfigResponse struct {
	IDTrans uint32
	Code    uint32
	Config  binConfig
}

type binStatusResponse struct {
	IDTrans uint32
	Code    uint32
	Status  binStatus
}

type binNotification struct {
	Timestamp int64
	Status    binStatus
}

type binBoot struct {
	Config binConfig
	Status binStatus
}

// Binary is the canonical fixed layout codec.
type Binary struct {
	loc *time.Location
}

func NewBinary(loc *time.Location) *Binary {
	if loc == nil {
		loc = time.Local
	}
	return &Binary{loc: loc}
}

func (c *Binary) Name() string { return "binary" }

// Marshal writes any fixed size value in the canonical layout.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("error encoding %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal reads a fixed size value, rejecting payloads of any other size.
func Unmarshal(b []byte, v any) error {
	if size := binary.Size(v); size < 0 || len(b) != size {
		return fmt.Errorf("%w: %d bytes for %T", ErrMalformedInput, len(b), v)
	}
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return nil
}

// MarshalConfig returns the canonical image of a configuration, the input of its checksum.
func MarshalConfig(cfg models.Config) []byte {
	b, _ := Marshal(toBinConfig(cfg))
	return b
}

func toBinConfig(cfg models.Config) binConfig {
	b := binConfig{
		UpdateFlags: uint32(cfg.UpdateFlags),
		EventMask:   uint32(cfg.EventMask),
		ALS:         cfg.ALS,
		Mode:        uint32(cfg.Output.Mode),
		Curve:       cfg.Output.Curve,
		NumActions:  cfg.Output.NumActions,
		Verbosity:   uint32(cfg.Verbosity),
	}
	for i, a := range cfg.Output.Actions {
		b.Actions[i] = a.Pack()
	}
	return b
}

func fromBinConfig(b binConfig) models.Config {
	cfg := models.Config{
		UpdateFlags: models.UpdateFlags(b.UpdateFlags),
		EventMask:   models.EventFlags(b.EventMask),
		ALS:         b.ALS,
		Verbosity:   VerbosityFromWire(b.Verbosity),
		Output: models.OutputConfig{
			Mode:       models.OutputMode(b.Mode),
			Curve:      b.Curve,
			NumActions: b.NumActions,
		},
	}
	for i, a := range b.Actions {
		cfg.Output.Actions[i] = a.Unpack()
	}
	return cfg
}

// VerbosityFromWire saturates wide wire values so they stay out of range.
func VerbosityFromWire(v uint32) models.Verbosity {
	if v > 0xFF {
		return 0xFF
	}
	return models.Verbosity(v)
}

func toBinStatus(s models.Status) binStatus {
	return binStatus{Flags: uint32(s.Flags), Value: s.Value}
}

func (c *Binary) DecodeGet(b []byte) (models.GetRequest, error) {
	var w binGet
	if err := Unmarshal(b, &w); err != nil {
		return models.GetRequest{}, err
	}
	return models.GetRequest{IDTrans: w.IDTrans}, nil
}

func (c *Binary) DecodeConfigSet(b []byte) (models.ConfigSetRequest, error) {
	var w binConfigSet
	if err := Unmarshal(b, &w); err != nil {
		return models.ConfigSetRequest{}, err
	}
	return models.ConfigSetRequest{
		IDTrans: w.IDTrans,
		Keys:    models.KeyMask(w.Keys),
		Config:  fromBinConfig(w.Config),
	}, nil
}

func (c *Binary) DecodeValueSet(b []byte) (models.ValueSetRequest, error) {
	var w binValueSet
	if err := Unmarshal(b, &w); err != nil {
		return models.ValueSetRequest{}, err
	}
	return models.ValueSetRequest{IDTrans: w.IDTrans, Value: int(w.Status.Value)}, nil
}

func (c *Binary) DecodeLux(b []byte) (uint32, error) {
	var w binLux
	if err := Unmarshal(b, &w); err != nil {
		return 0, err
	}
	return w.Lux, nil
}

func (c *Binary) DecodeTime(b []byte) (models.TimeSnapshot, error) {
	var w binTime
	if err := Unmarshal(b, &w); err != nil {
		return models.TimeSnapshot{}, err
	}
	return models.TimeSnapshot{
		Now:            time.Unix(w.Now, 0).In(c.loc),
		Period:         w.Period,
		DawnStart:      w.DawnStart,
		DawnEnd:        w.DawnEnd,
		DuskStart:      w.DuskStart,
		DuskEnd:        w.DuskEnd,
		ReductionStart: w.ReductionStart,
		ReductionEnd:   w.ReductionEnd,
		Latitude:       w.Latitude,
		Longitude:      w.Longitude,
	}, nil
}

// EncodeTime is used by local snapshot producers that post through the mailbox.
func (c *Binary) EncodeTime(s models.TimeSnapshot) ([]byte, error) {
	return Marshal(binTime{
		Now:            s.Now.Unix(),
		Period:         s.Period,
		DawnStart:      s.DawnStart,
		DawnEnd:        s.DawnEnd,
		DuskStart:      s.DuskStart,
		DuskEnd:        s.DuskEnd,
		ReductionStart: s.ReductionStart,
		ReductionEnd:   s.ReductionEnd,
		Latitude:       s.Latitude,
		Longitude:      s.Longitude,
	})
}

func (c *Binary) EncodeConfigSet(r models.ConfigSetRequest) ([]byte, error) {
	return Marshal(binConfigSet{IDTrans: r.IDTrans, Keys: uint32(r.Keys), Config: toBinConfig(r.Config)})
}

func (c *Binary) EncodeValueSet(r models.ValueSetRequest) ([]byte, error) {
	if r.Value < 0 || r.Value > 0xFF {
		return nil, fmt.Errorf("value %d does not fit the binary layout", r.Value)
	}
	return Marshal(binValueSet{IDTrans: r.IDTrans, Status: binStatus{Value: uint8(r.Value)}})
}

func (c *Binary) EncodeGet(r models.GetRequest) ([]byte, error) {
	return Marshal(binGet{IDTrans: r.IDTrans})
}

func (c *Binary) EncodeLux(lux uint32) ([]byte, error) {
	return Marshal(binLux{Lux: lux})
}

func (c *Binary) EncodeConfigResponse(r models.ConfigResponse) ([]byte, error) {
	return Marshal(binConfigResponse{IDTrans: r.IDTrans, Code: uint32(r.Err), Config: toBinConfig(r.Config)})
}

func (c *Binary) DecodeConfigResponse(b []byte) (models.ConfigResponse, error) {
	var w binConfigResponse
	if err := Unmarshal(b, &w); err != nil {
		return models.ConfigResponse{}, err
	}
	return models.ConfigResponse{IDTrans: w.IDTrans, Err: models.ErrorCode(w.Code), Config: fromBinConfig(w.Config)}, nil
}

func (c *Binary) EncodeStatusResponse(r models.StatusResponse) ([]byte, error) {
	return Marshal(binStatusResponse{IDTrans: r.IDTrans, Code: uint32(r.Err), Status: toBinStatus(r.Status)})
}

func (c *Binary) DecodeStatusResponse(b []byte) (models.StatusResponse, error) {
	var w binStatusResponse
	if err := Unmarshal(b, &w); err != nil {
		return models.StatusResponse{}, err
	}
	return models.StatusResponse{
		IDTrans: w.IDTrans,
		Err:     models.ErrorCode(w.Code),
		Status:  models.Status{Flags: models.EventFlags(w.Status.Flags), Value: w.Status.Value},
	}, nil
}

func (c *Binary) EncodeNotification(n models.Notification) ([]byte, error) {
	return Marshal(binNotification{Timestamp: n.Timestamp, Status: toBinStatus(n.Status)})
}

func (c *Binary) DecodeNotification(b []byte) (models.Notification, error) {
	var w binNotification
	if err := Unmarshal(b, &w); err != nil {
		return models.Notification{}, err
	}
	return models.Notification{
		Timestamp: w.Timestamp,
		Status:    models.Status{Flags: models.EventFlags(w.Status.Flags), Value: w.Status.Value},
	}, nil
}

func (c *Binary) EncodeBoot(b models.Boot) ([]byte, error) {
	return Marshal(binBoot{Config: toBinConfig(b.Config), Status: toBinStatus(b.Status)})
}

func (c *Binary) DecodeBoot(b []byte) (models.Boot, error) {
	var w binBoot
	if err := Unmarshal(b, &w); err != nil {
		return models.Boot{}, err
	}
	return models.Boot{
		Config: fromBinConfig(w.Config),
		Status: models.Status{Flags: models.EventFlags(w.Status.Flags), Value: w.Status.Value},
	}, nil
}
