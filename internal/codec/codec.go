package codec

import (
	"errors"
	"time"

	"github.com/wheelibin/luxman/internal/models"
)

var ErrMalformedInput = errors.New("malformed input")

// Codec translates between wire payloads and the shared data model.
type Codec interface {
	Name() string

	DecodeGet(b []byte) (models.GetRequest, error)
	DecodeConfigSet(b []byte) (models.ConfigSetRequest, error)
	DecodeValueSet(b []byte) (models.ValueSetRequest, error)
	DecodeLux(b []byte) (uint32, error)
	DecodeTime(b []byte) (models.TimeSnapshot, error)

	EncodeConfigResponse(r models.ConfigResponse) ([]byte, error)
	EncodeStatusResponse(r models.StatusResponse) ([]byte, error)
	EncodeNotification(n models.Notification) ([]byte, error)
	EncodeBoot(b models.Boot) ([]byte, error)
}

// Dual speaks JSON when the capability is enabled and always understands the
// canonical binary layout. Decoding tries JSON first and then requires a
// binary payload of exactly the expected size.
type Dual struct {
	json        *JSON
	binary      *Binary
	jsonEnabled bool
}

func New(jsonEnabled bool, loc *time.Location) *Dual {
	return &Dual{json: NewJSON(loc), binary: NewBinary(loc), jsonEnabled: jsonEnabled}
}

func (d *Dual) Name() string {
	if d.jsonEnabled {
		return d.json.Name() + "+" + d.binary.Name()
	}
	return d.binary.Name()
}

func decode[T any](d *Dual, b []byte, fromJSON, fromBinary func([]byte) (T, error)) (T, error) {
	if d.jsonEnabled {
		if v, err := fromJSON(b); err == nil {
			return v, nil
		}
	}
	return fromBinary(b)
}

func encode[T any](d *Dual, v T, toJSON, toBinary func(T) ([]byte, error)) ([]byte, error) {
	if d.jsonEnabled {
		if b, err := toJSON(v); err == nil {
			return b, nil
		}
	}
	return toBinary(v)
}

func (d *Dual) DecodeGet(b []byte) (models.GetRequest, error) {
	return decode(d, b, d.json.DecodeGet, d.binary.DecodeGet)
}

func (d *Dual) DecodeConfigSet(b []byte) (models.ConfigSetRequest, error) {
	return decode(d, b, d.json.DecodeConfigSet, d.binary.DecodeConfigSet)
}

func (d *Dual) DecodeValueSet(b []byte) (models.ValueSetRequest, error) {
	return decode(d, b, d.json.DecodeValueSet, d.binary.DecodeValueSet)
}

func (d *Dual) DecodeLux(b []byte) (uint32, error) {
	return decode(d, b, d.json.DecodeLux, d.binary.DecodeLux)
}

func (d *Dual) DecodeTime(b []byte) (models.TimeSnapshot, error) {
	return decode(d, b, d.json.DecodeTime, d.binary.DecodeTime)
}

func (d *Dual) EncodeConfigResponse(r models.ConfigResponse) ([]byte, error) {
	return encode(d, r, d.json.EncodeConfigResponse, d.binary.EncodeConfigResponse)
}

func (d *Dual) EncodeStatusResponse(r models.StatusResponse) ([]byte, error) {
	return encode(d, r, d.json.EncodeStatusResponse, d.binary.EncodeStatusResponse)
}

func (d *Dual) EncodeNotification(n models.Notification) ([]byte, error) {
	return encode(d, n, d.json.EncodeNotification, d.binary.EncodeNotification)
}

func (d *Dual) EncodeBoot(b models.Boot) ([]byte, error) {
	return encode(d, b, d.json.EncodeBoot, d.binary.EncodeBoot)
}
