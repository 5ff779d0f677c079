package curve

import (
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
)

// Apply maps a requested level (0-100) through the brightness curve.
//
// Only a curve with exactly CurveSampleCount samples is applied; the samples
// sit at every 10% step and the levels in between are interpolated with
// truncating integer arithmetic. Any other sample count passes the value through.
func Apply(c models.Curve, value uint8) uint8 {
	if c.Samples != constants.CurveSampleCount {
		return value
	}
	if value > constants.MaxOutputValue {
		value = constants.MaxOutputValue
	}

	interval := int(value) / 10
	if interval == constants.CurveSampleCount-1 {
		return clamp(int(c.Data[interval]))
	}

	pos := int(value) % 10
	start := int(c.Data[interval])
	end := int(c.Data[interval+1])

	return clamp(pos*(end-start)/10 + start)
}

func clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > constants.MaxOutputValue {
		return constants.MaxOutputValue
	}
	return uint8(v)
}
