package store_test

import (
	"errors"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelibin/luxman/internal/codec"
	"github.com/wheelibin/luxman/internal/constants"
	"github.com/wheelibin/luxman/internal/models"
	"github.com/wheelibin/luxman/internal/repos"
	"github.com/wheelibin/luxman/internal/store"
)

// wraps the sqlite repo and fails saves of the named parameters
type flakyParams struct {
	*repos.ParamRepo
	failSave map[string]bool
}

func (p *flakyParams) Save(name string, value []byte) error {
	if p.failSave[name] {
		return errors.New("flash write failed")
	}
	return p.ParamRepo.Save(name, value)
}

func newStore(t *testing.T, failSave ...string) (*store.ConfigStore, *repos.ParamRepo) {
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
	repo, err := repos.Open(logger, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	params := &flakyParams{ParamRepo: repo, failSave: map[string]bool{}}
	for _, name := range failSave {
		params.failSave[name] = true
	}
	return store.NewConfigStore(logger, params), repo
}

func testConfig() models.Config {
	cfg := models.Config{
		UpdateFlags: models.NotifyOnConfigChange,
		EventMask:   models.EventOutputOn,
		ALS:         models.LuxWindow{Min: 5, Max: 10, Threshold: 1},
		Verbosity:   models.VerbosityWarn,
		Output: models.OutputConfig{
			Mode:       models.OutputDALI,
			Curve:      models.Curve{Samples: 11, Data: [11]int8{0, 5, 10, 20, 30, 40, 50, 60, 70, 85, 100}},
			NumActions: 1,
		},
	}
	for i := range cfg.Output.Actions {
		cfg.Output.Actions[i] = models.DisabledAction()
	}
	cfg.Output.Actions[4] = models.Action{ID: 4, Trigger: models.ALS(1, 2, 3), Output: 60, ALSActive: true}
	return cfg
}

func Test_ConfigStore(t *testing.T) {

	t.Run("should restore a saved configuration", func(t *testing.T) {
		t.Parallel()
		s, _ := newStore(t)
		cfg := testConfig()

		require.NoError(t, s.Save(cfg))
		restored, err := s.Restore()

		require.NoError(t, err)
		assert.Equal(t, cfg, restored)
	})

	t.Run("should fail to restore from an empty store", func(t *testing.T) {
		t.Parallel()
		s, _ := newStore(t)

		_, err := s.Restore()

		assert.ErrorIs(t, err, store.ErrRestoreFailed)
		assert.ErrorIs(t, err, repos.ErrParamNotFound)
	})

	t.Run("should detect a field changed behind its checksum", func(t *testing.T) {
		t.Parallel()
		s, repo := newStore(t)
		require.NoError(t, s.Save(testConfig()))

		b, _ := codec.Marshal(uint32(models.OutputPWM))
		require.NoError(t, repo.Save(constants.ParamOutputMode, b))
		_, err := s.Restore()

		assert.ErrorIs(t, err, store.ErrChecksumMismatch)
	})

	t.Run("should fail to restore a field of the wrong size", func(t *testing.T) {
		t.Parallel()
		s, repo := newStore(t)
		require.NoError(t, s.Save(testConfig()))

		require.NoError(t, repo.Save(store.ActionParam(3), []byte{1, 2}))
		_, err := s.Restore()

		assert.ErrorIs(t, err, store.ErrRestoreFailed)
		assert.ErrorIs(t, err, codec.ErrMalformedInput)
	})

	t.Run("should save the remaining fields when one fails", func(t *testing.T) {
		t.Parallel()
		s, repo := newStore(t, constants.ParamCurve)

		err := s.Save(testConfig())

		assert.ErrorIs(t, err, store.ErrSaveIncomplete)
		_, err = repo.Restore(constants.ParamVerbosity)
		assert.NoError(t, err)
		_, err = repo.Restore(store.ActionParam(constants.MaxActions - 1))
		assert.NoError(t, err)
		_, err = repo.Restore(constants.ParamChecksum)
		assert.ErrorIs(t, err, repos.ErrParamNotFound)
	})

	t.Run("should compute the checksum over the whole aggregate", func(t *testing.T) {
		t.Parallel()
		a := testConfig()
		b := testConfig()
		b.Output.Actions[4].ALSActive = false

		assert.NotEqual(t, store.Checksum(a), store.Checksum(b))
		assert.Equal(t, store.Checksum(a), store.Checksum(testConfig()))
	})
}
