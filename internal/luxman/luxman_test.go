package luxman_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"

	lightmanager "github.com/wheelibin/luxman/internal/lightManager"
	"github.com/wheelibin/luxman/internal/luxman"
	"github.com/wheelibin/luxman/internal/models"
)

type fakePublisher struct {
	err    error
	topics []string
}

func (p *fakePublisher) Publish(topic string, _ []byte) error {
	p.topics = append(p.topics, topic)
	return p.err
}

type fixedClock struct{}

func (fixedClock) Snapshot(now time.Time) models.TimeSnapshot {
	return models.TimeSnapshot{Now: now, Period: 3}
}

type collectingDispatcher struct {
	mu     sync.Mutex
	events []lightmanager.Event
}

func (d *collectingDispatcher) Dispatch(ev lightmanager.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return nil
}

func (d *collectingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

func Test_Fanout(t *testing.T) {

	t.Run("should publish to every publisher", func(t *testing.T) {
		t.Parallel()
		// arrange
		a, b := &fakePublisher{}, &fakePublisher{}

		// act
		err := luxman.Fanout{a, b}.Publish("stat/value/lamp", []byte{1})

		// assert
		assert.NoError(t, err)
		assert.Equal(t, []string{"stat/value/lamp"}, a.topics)
		assert.Equal(t, []string{"stat/value/lamp"}, b.topics)
	})

	t.Run("should keep publishing after a failure and report it", func(t *testing.T) {
		t.Parallel()
		failure := errors.New("offline")
		a, b := &fakePublisher{err: failure}, &fakePublisher{}

		err := luxman.Fanout{a, b}.Publish("stat/cfg/lamp", nil)

		assert.ErrorIs(t, err, failure)
		assert.Len(t, b.topics, 1)
	})
}

func Test_RunClock(t *testing.T) {

	t.Run("should dispatch time updates until cancelled", func(t *testing.T) {
		t.Parallel()
		logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
		d := &collectingDispatcher{}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		go func() {
			luxman.RunClock(ctx, logger, fixedClock{}, 5*time.Millisecond, d)
			close(done)
		}()

		assert.Eventually(t, func() bool { return d.count() >= 2 }, time.Second, 5*time.Millisecond)
		cancel()
		<-done

		d.mu.Lock()
		defer d.mu.Unlock()
		ev, ok := d.events[0].(lightmanager.TimeUpdateEvent)
		assert.True(t, ok)
		assert.Equal(t, uint8(3), ev.Snapshot.Period)
	})
}

func Test_RunLoops(t *testing.T) {

	t.Run("should return only after every loop has finished", func(t *testing.T) {
		t.Parallel()
		// arrange
		ctx, cancel := context.WithCancel(context.Background())
		var mu sync.Mutex
		var stopped []string
		slowLoop := func(name string) func(context.Context) {
			return func(ctx context.Context) {
				<-ctx.Done()
				time.Sleep(50 * time.Millisecond)
				mu.Lock()
				stopped = append(stopped, name)
				mu.Unlock()
			}
		}
		returned := make(chan struct{})

		// act
		go func() {
			luxman.RunLoops(ctx, slowLoop("manager"), slowLoop("output"))
			close(returned)
		}()
		cancel()
		<-returned

		// assert
		mu.Lock()
		defer mu.Unlock()
		assert.ElementsMatch(t, []string{"manager", "output"}, stopped)
	})
}
