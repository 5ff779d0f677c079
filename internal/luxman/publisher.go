package luxman

import (
	"errors"
	"fmt"
)

type publisher interface {
	Publish(topic string, payload []byte) error
}

// Fanout publishes every message to all of its publishers, so one failing
// transport does not starve the others.
type Fanout []publisher

func (f Fanout) Publish(topic string, payload []byte) error {
	var errs []error
	for i, p := range f {
		if err := p.Publish(topic, payload); err != nil {
			errs = append(errs, fmt.Errorf("publisher %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
