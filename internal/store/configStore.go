package store

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/klauspost/crc32"

	"github.com/wheelibin/luxman/internal/codec"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
)

var ErrSaveIncomplete = errors.New("configuration save incomplete")
var ErrRestoreFailed = errors.New("configuration restore failed")
var ErrChecksumMismatch = errors.New("configuration checksum mismatch")

type paramStore interface {
	Save(name string, value []byte) error
	Restore(name string) ([]byte, error)
}

// ConfigStore maps the configuration aggregate onto named parameters, one per
// field and one per action slot, guarded by a CRC32 of the whole aggregate.
type ConfigStore struct {
	logger *log.Logger
	params paramStore
}

func NewConfigStore(logger *log.Logger, params paramStore) *ConfigStore {
	return &ConfigStore{logger: logger, params: params}
}

func ActionParam(slot int) string {
	return fmt.Sprintf("%s%d", constants.ParamActionPrefix, slot)
}

// Checksum is the CRC32 (IEEE) of the canonical configuration image.
func Checksum(cfg models.Config) uint32 {
	return crc32.ChecksumIEEE(codec.MarshalConfig(cfg))
}

// Save writes every field, carrying on past failures. The checksum is only
// rewritten when every field was saved, so a partial save never restores.
func (s *ConfigStore) Save(cfg models.Config) error {
	var errs []error
	save := func(name string, v any) {
		b, err := codec.Marshal(v)
		if err == nil {
			err = s.params.Save(name, b)
		}
		if err != nil {
			s.logger.Error("Error saving parameter", "name", name, "err", err)
			errs = append(errs, err)
		}
	}

	save(constants.ParamUpdateFlags, uint32(cfg.UpdateFlags))
	save(constants.ParamEventMask, uint32(cfg.EventMask))
	save(constants.ParamALS, cfg.ALS)
	save(constants.ParamOutputMode, uint32(cfg.Output.Mode))
	save(constants.ParamCurve, cfg.Output.Curve)
	save(constants.ParamNumActions, cfg.Output.NumActions)
	for i, a := range cfg.Output.Actions {
		save(ActionParam(i), a.Pack())
	}
	save(constants.ParamVerbosity, uint32(cfg.Verbosity))

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSaveIncomplete, errors.Join(errs...))
	}

	save(constants.ParamChecksum, Checksum(cfg))
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSaveIncomplete, errors.Join(errs...))
	}

	s.logger.Debug("configuration saved", "checksum", Checksum(cfg))
	return nil
}

// Restore loads the whole aggregate or nothing.
func (s *ConfigStore) Restore() (models.Config, error) {
	restore := func(name string, v any) error {
		b, err := s.params.Restore(name)
		if err == nil {
			err = codec.Unmarshal(b, v)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRestoreFailed, name, err)
		}
		return nil
	}

	var (
		cfg                          models.Config
		upd, evt, mode, verb, stored uint32
		err                          error
	)
	if err = restore(constants.ParamUpdateFlags, &upd); err != nil {
		return models.Config{}, err
	}
	if err = restore(constants.ParamEventMask, &evt); err != nil {
		return models.Config{}, err
	}
	if err = restore(constants.ParamALS, &cfg.ALS); err != nil {
		return models.Config{}, err
	}
	if err = restore(constants.ParamOutputMode, &mode); err != nil {
		return models.Config{}, err
	}
	if err = restore(constants.ParamCurve, &cfg.Output.Curve); err != nil {
		return models.Config{}, err
	}
	if err = restore(constants.ParamNumActions, &cfg.Output.NumActions); err != nil {
		return models.Config{}, err
	}
	for i := range cfg.Output.Actions {
		var p models.PackedAction
		if err = restore(ActionParam(i), &p); err != nil {
			return models.Config{}, err
		}
		cfg.Output.Actions[i] = p.Unpack()
	}
	if err = restore(constants.ParamVerbosity, &verb); err != nil {
		return models.Config{}, err
	}
	if err = restore(constants.ParamChecksum, &stored); err != nil {
		return models.Config{}, err
	}

	cfg.UpdateFlags = models.UpdateFlags(upd)
	cfg.EventMask = models.EventFlags(evt)
	cfg.Output.Mode = models.OutputMode(mode)
	cfg.Verbosity = codec.VerbosityFromWire(verb)

	if sum := Checksum(cfg); sum != stored {
		return models.Config{}, fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksumMismatch, stored, sum)
	}
	return cfg, nil
}
