package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
)

// numeric fields decode wide and are range checked, so an oversized value is
// reported to the requester instead of failing the whole payload

type jsonLux struct {
	Min   int64 `json:"min"`
	Max   int64 `json:"max"`
	Thres int64 `json:"thres"`
}

type jsonAction struct {
	ID       int64   `json:"id"`
	Flags    int64   `json:"flags"`
	Date     int64   `json:"date"`
	Time     int64   `json:"time"`
	AstCorr  int64   `json:"astCorr"`
	OutValue int64   `json:"outValue"`
	LuxLevel jsonLux `json:"luxLevel"`
}

type jsonCurve struct {
	Samples int64   `json:"samples"`
	Data    []int64 `json:"data"`
}

type jsonALSData struct {
	Lux *jsonLux `json:"lux,omitempty"`
}

type jsonOutData struct {
	Mode       *int64        `json:"mode,omitempty"`
	NumActions *int64        `json:"numActions,omitempty"`
	Curve      *jsonCurve    `json:"curve,omitempty"`
	Actions    *[]jsonAction `json:"actions,omitempty"`
}

type jsonConfig struct {
	UpdFlags  *int64       `json:"updFlags,omitempty"`
	EvtFlags  *int64       `json:"evtFlags,omitempty"`
	Verbosity *int64       `json:"verbosity,omitempty"`
	ALSData   *jsonALSData `json:"alsData,omitempty"`
	OutData   *jsonOutData `json:"outData,omitempty"`
}

type jsonStatus struct {
	Flags    int64  `json:"flags"`
	OutValue *int64 `json:"outValue,omitempty"`
}

type jsonError struct {
	Code  uint32 `json:"code"`
	Descr string `json:"descr"`
}

type jsonRequest struct {
	IDTrans json.RawMessage `json:"idTrans"`
	Data    json.RawMessage `json:"data"`
}

type jsonResponse[T any] struct {
	IDTrans uint32    `json:"idTrans"`
	Error   jsonError `json:"error"`
	Data    T         `json:"data"`
}

type jsonNotification struct {
	Timestamp int64      `json:"timestamp"`
	Data      jsonStatus `json:"data"`
}

type jsonBoot struct {
	Config jsonConfig `json:"cfg"`
	Status jsonStatus `json:"stat"`
}

type jsonLuxUpdate struct {
	LuxLevel *int64 `json:"luxLevel"`
}

type jsonTime struct {
	Now            *int64  `json:"now"`
	Period         uint8   `json:"period"`
	DawnStart      uint16  `json:"dawnStart"`
	DawnEnd        uint16  `json:"dawnEnd"`
	DuskStart      uint16  `json:"duskStart"`
	DuskEnd        uint16  `json:"duskEnd"`
	ReductionStart uint16  `json:"reductionStart"`
	ReductionEnd   uint16  `json:"reductionEnd"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// JSON is the object encoding of the same field set as Binary.
type JSON struct {
	loc *time.Location
}

func NewJSON(loc *time.Location) *JSON {
	if loc == nil {
		loc = time.Local
	}
	return &JSON{loc: loc}
}

func (c *JSON) Name() string { return "json" }

func unmarshalObject(b []byte, v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return nil
}

// decodes the request envelope and validates the transaction id
func decodeEnvelope(b []byte) (jsonRequest, uint32, models.ErrorCode, error) {
	var req jsonRequest
	if err := unmarshalObject(b, &req); err != nil {
		return req, 0, models.CodeOK, err
	}
	if len(req.IDTrans) == 0 {
		return req, 0, models.CodeMissingRequiredField, nil
	}
	var id uint32
	if err := json.Unmarshal(req.IDTrans, &id); err != nil {
		return req, 0, models.CodeIDTransInvalid, nil
	}
	return req, id, models.CodeOK, nil
}

func (c *JSON) DecodeGet(b []byte) (models.GetRequest, error) {
	_, id, code, err := decodeEnvelope(b)
	if err != nil {
		return models.GetRequest{}, err
	}
	return models.GetRequest{IDTrans: id, Err: code}, nil
}

func (c *JSON) DecodeValueSet(b []byte) (models.ValueSetRequest, error) {
	env, id, code, err := decodeEnvelope(b)
	if err != nil {
		return models.ValueSetRequest{}, err
	}
	req := models.ValueSetRequest{IDTrans: id, Err: code}
	if code != models.CodeOK {
		return req, nil
	}

	var status jsonStatus
	if len(env.Data) == 0 || json.Unmarshal(env.Data, &status) != nil || status.OutValue == nil {
		req.Err = models.CodeMissingRequiredField
		return req, nil
	}
	if *status.OutValue < math.MinInt32 || *status.OutValue > math.MaxInt32 {
		req.Err = models.CodeRangeValue
		return req, nil
	}
	req.Value = int(*status.OutValue)
	return req, nil
}

func (c *JSON) DecodeConfigSet(b []byte) (models.ConfigSetRequest, error) {
	env, id, code, err := decodeEnvelope(b)
	if err != nil {
		return models.ConfigSetRequest{}, err
	}
	req := models.ConfigSetRequest{IDTrans: id, Err: code}
	if code != models.CodeOK {
		return req, nil
	}
	if len(env.Data) == 0 {
		req.Err = models.CodeMissingRequiredField
		return req, nil
	}

	var cfg jsonConfig
	if err := json.Unmarshal(env.Data, &cfg); err != nil {
		req.Err = models.CodeMalformedInput
		return req, nil
	}
	req.Config, req.Keys, req.Err = fromJSONConfig(cfg)
	return req, nil
}

func inRange(v, min, max int64) bool {
	return v >= min && v <= max
}

func fromJSONLux(l jsonLux) (models.LuxWindow, bool) {
	ok := inRange(l.Min, 0, math.MaxUint32) && inRange(l.Max, 0, math.MaxUint32) && inRange(l.Thres, 0, math.MaxUint32)
	return models.LuxWindow{Min: uint32(l.Min), Max: uint32(l.Max), Threshold: uint32(l.Thres)}, ok
}

func fromJSONAction(a jsonAction) (models.Action, bool) {
	lux, ok := fromJSONLux(a.LuxLevel)
	ok = ok &&
		inRange(a.ID, math.MinInt8, math.MaxInt8) &&
		inRange(a.Flags, 0, math.MaxUint32) &&
		inRange(a.Date, 0, math.MaxUint16) &&
		inRange(a.Time, 0, math.MaxUint16) &&
		inRange(a.AstCorr, math.MinInt8, math.MaxInt8) &&
		inRange(a.OutValue, math.MinInt8, math.MaxInt8)
	return models.PackedAction{
		ID:         int8(a.ID),
		Flags:      models.ActionFlags(a.Flags),
		Date:       uint16(a.Date),
		Time:       uint16(a.Time),
		Correction: int8(a.AstCorr),
		Lux:        lux,
		Output:     int8(a.OutValue),
	}.Unpack(), ok
}

// collects the fields present in the object into a config and the key mask naming them
func fromJSONConfig(j jsonConfig) (models.Config, models.KeyMask, models.ErrorCode) {
	var (
		cfg  models.Config
		keys models.KeyMask
		ok   = true
	)

	if j.UpdFlags != nil {
		ok = ok && inRange(*j.UpdFlags, 0, math.MaxUint32)
		cfg.UpdateFlags = models.UpdateFlags(*j.UpdFlags)
		keys |= models.KeyUpdateFlags
	}
	if j.EvtFlags != nil {
		ok = ok && inRange(*j.EvtFlags, 0, math.MaxUint32)
		cfg.EventMask = models.EventFlags(*j.EvtFlags)
		keys |= models.KeyEventMask
	}
	if j.Verbosity != nil {
		ok = ok && inRange(*j.Verbosity, 0, math.MaxUint8)
		cfg.Verbosity = models.Verbosity(*j.Verbosity)
		keys |= models.KeyVerbosity
	}
	if j.ALSData != nil && j.ALSData.Lux != nil {
		var luxOK bool
		cfg.ALS, luxOK = fromJSONLux(*j.ALSData.Lux)
		ok = ok && luxOK
		keys |= models.KeyALS
	}

	if out := j.OutData; out != nil {
		if out.Mode != nil {
			ok = ok && inRange(*out.Mode, 0, math.MaxUint32)
			cfg.Output.Mode = models.OutputMode(*out.Mode)
			keys |= models.KeyOutputMode
		}
		if out.Curve != nil {
			samples := min(max(out.Curve.Samples, 0), constants.CurveSampleCount)
			if int64(len(out.Curve.Data)) == samples {
				cfg.Output.Curve.Samples = uint16(samples)
				for i, v := range out.Curve.Data {
					ok = ok && inRange(v, math.MinInt8, math.MaxInt8)
					cfg.Output.Curve.Data[i] = int8(v)
				}
				keys |= models.KeyCurve
			}
		}
		if out.NumActions != nil && out.Actions != nil {
			n := min(max(*out.NumActions, 0), constants.MaxActions)
			if int64(len(*out.Actions)) == n {
				cfg.Output.NumActions = uint8(n)
				for i, ja := range *out.Actions {
					a, actionOK := fromJSONAction(ja)
					ok = ok && actionOK
					cfg.Output.Actions[i] = a
				}
				keys |= models.KeyActions
			}
		}
	}

	if !ok {
		return cfg, keys, models.CodeRangeValue
	}
	return cfg, keys, models.CodeOK
}

func toJSONLux(l models.LuxWindow) jsonLux {
	return jsonLux{Min: int64(l.Min), Max: int64(l.Max), Thres: int64(l.Threshold)}
}

func toJSONConfig(cfg models.Config) jsonConfig {
	curve := jsonCurve{
		Samples: int64(cfg.Output.Curve.Samples),
		Data: lo.Map(cfg.Output.Curve.Data[:min(int(cfg.Output.Curve.Samples), constants.CurveSampleCount)],
			func(v int8, _ int) int64 { return int64(v) }),
	}

	n := min(int(cfg.Output.NumActions), constants.MaxActions)
	actions := lo.Map(cfg.Output.Actions[:n], func(a models.Action, _ int) jsonAction {
		p := a.Pack()
		return jsonAction{
			ID:       int64(p.ID),
			Flags:    int64(p.Flags),
			Date:     int64(p.Date),
			Time:     int64(p.Time),
			AstCorr:  int64(p.Correction),
			OutValue: int64(p.Output),
			LuxLevel: toJSONLux(p.Lux),
		}
	})

	als := toJSONLux(cfg.ALS)
	return jsonConfig{
		UpdFlags:  lo.ToPtr(int64(cfg.UpdateFlags)),
		EvtFlags:  lo.ToPtr(int64(cfg.EventMask)),
		Verbosity: lo.ToPtr(int64(cfg.Verbosity)),
		ALSData:   &jsonALSData{Lux: &als},
		OutData: &jsonOutData{
			Mode:       lo.ToPtr(int64(cfg.Output.Mode)),
			NumActions: lo.ToPtr(int64(n)),
			Curve:      &curve,
			Actions:    &actions,
		},
	}
}

func toJSONStatus(s models.Status) jsonStatus {
	return jsonStatus{Flags: int64(s.Flags), OutValue: lo.ToPtr(int64(s.Value))}
}

func fromJSONStatus(s jsonStatus) models.Status {
	status := models.Status{Flags: models.EventFlags(s.Flags)}
	if s.OutValue != nil {
		status.Value = uint8(*s.OutValue)
	}
	return status
}

func jsonErrorOf(code models.ErrorCode) jsonError {
	return jsonError{Code: uint32(code), Descr: code.String()}
}

func (c *JSON) DecodeLux(b []byte) (uint32, error) {
	var w jsonLuxUpdate
	if err := unmarshalObject(b, &w); err != nil {
		return 0, err
	}
	if w.LuxLevel == nil || !inRange(*w.LuxLevel, 0, math.MaxUint32) {
		return 0, fmt.Errorf("%w: luxLevel", ErrMalformedInput)
	}
	return uint32(*w.LuxLevel), nil
}

func (c *JSON) DecodeTime(b []byte) (models.TimeSnapshot, error) {
	var w jsonTime
	if err := unmarshalObject(b, &w); err != nil {
		return models.TimeSnapshot{}, err
	}
	if w.Now == nil {
		return models.TimeSnapshot{}, fmt.Errorf("%w: now", ErrMalformedInput)
	}
	return models.TimeSnapshot{
		Now:            time.Unix(*w.Now, 0).In(c.loc),
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

func (c *JSON) EncodeTime(s models.TimeSnapshot) ([]byte, error) {
	return json.Marshal(jsonTime{
		Now:            lo.ToPtr(s.Now.Unix()),
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

func (c *JSON) EncodeGet(r models.GetRequest) ([]byte, error) {
	return json.Marshal(map[string]uint32{"idTrans": r.IDTrans})
}

func (c *JSON) EncodeValueSet(r models.ValueSetRequest) ([]byte, error) {
	return json.Marshal(map[string]any{
		"idTrans": r.IDTrans,
		"data":    jsonStatus{OutValue: lo.ToPtr(int64(r.Value))},
	})
}

// EncodeConfigSet emits only the fields named by the request keys.
func (c *JSON) EncodeConfigSet(r models.ConfigSetRequest) ([]byte, error) {
	full := toJSONConfig(r.Config)
	var partial jsonConfig
	if r.Keys.Has(models.KeyUpdateFlags) {
		partial.UpdFlags = full.UpdFlags
	}
	if r.Keys.Has(models.KeyEventMask) {
		partial.EvtFlags = full.EvtFlags
	}
	if r.Keys.Has(models.KeyVerbosity) {
		partial.Verbosity = full.Verbosity
	}
	if r.Keys.Has(models.KeyALS) {
		partial.ALSData = full.ALSData
	}
	if r.Keys&(models.KeyOutputMode|models.KeyCurve|models.KeyActions) != 0 {
		partial.OutData = &jsonOutData{}
		if r.Keys.Has(models.KeyOutputMode) {
			partial.OutData.Mode = full.OutData.Mode
		}
		if r.Keys.Has(models.KeyCurve) {
			partial.OutData.Curve = full.OutData.Curve
		}
		if r.Keys.Has(models.KeyActions) {
			partial.OutData.NumActions = full.OutData.NumActions
			partial.OutData.Actions = full.OutData.Actions
		}
	}
	return json.Marshal(map[string]any{"idTrans": r.IDTrans, "data": partial})
}

func (c *JSON) EncodeConfigResponse(r models.ConfigResponse) ([]byte, error) {
	return json.Marshal(jsonResponse[jsonConfig]{IDTrans: r.IDTrans, Error: jsonErrorOf(r.Err), Data: toJSONConfig(r.Config)})
}

func (c *JSON) DecodeConfigResponse(b []byte) (models.ConfigResponse, error) {
	var w jsonResponse[jsonConfig]
	if err := unmarshalObject(b, &w); err != nil {
		return models.ConfigResponse{}, err
	}
	cfg, _, _ := fromJSONConfig(w.Data)
	return models.ConfigResponse{IDTrans: w.IDTrans, Err: models.ErrorCode(w.Error.Code), Config: cfg}, nil
}

func (c *JSON) EncodeStatusResponse(r models.StatusResponse) ([]byte, error) {
	return json.Marshal(jsonResponse[jsonStatus]{IDTrans: r.IDTrans, Error: jsonErrorOf(r.Err), Data: toJSONStatus(r.Status)})
}

func (c *JSON) DecodeStatusResponse(b []byte) (models.StatusResponse, error) {
	var w jsonResponse[jsonStatus]
	if err := unmarshalObject(b, &w); err != nil {
		return models.StatusResponse{}, err
	}
	return models.StatusResponse{IDTrans: w.IDTrans, Err: models.ErrorCode(w.Error.Code), Status: fromJSONStatus(w.Data)}, nil
}

func (c *JSON) EncodeNotification(n models.Notification) ([]byte, error) {
	return json.Marshal(jsonNotification{Timestamp: n.Timestamp, Data: toJSONStatus(n.Status)})
}

func (c *JSON) DecodeNotification(b []byte) (models.Notification, error) {
	var w jsonNotification
	if err := unmarshalObject(b, &w); err != nil {
		return models.Notification{}, err
	}
	return models.Notification{Timestamp: w.Timestamp, Status: fromJSONStatus(w.Data)}, nil
}

func (c *JSON) EncodeBoot(b models.Boot) ([]byte, error) {
	return json.Marshal(jsonBoot{Config: toJSONConfig(b.Config), Status: toJSONStatus(b.Status)})
}

func (c *JSON) DecodeBoot(b []byte) (models.Boot, error) {
	var w jsonBoot
	if err := unmarshalObject(b, &w); err != nil {
		return models.Boot{}, err
	}
	cfg, _, _ := fromJSONConfig(w.Config)
	return models.Boot{Config: cfg, Status: fromJSONStatus(w.Status)}, nil
}
