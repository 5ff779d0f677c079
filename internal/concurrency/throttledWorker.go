package concurrency

import (
	"errors"
	"time"
)

// ThrottledWorker runs a job per argument, starting at most one job per interval.
type ThrottledWorker struct {
	interval    time.Duration
	jobCallback func(arg string) error
}

func NewThrottledWorker(interval time.Duration, jobCallback func(arg string) error) ThrottledWorker {
	return ThrottledWorker{interval: interval, jobCallback: jobCallback}
}

// Run processes jobArgs in order and returns every job error joined.
func (w *ThrottledWorker) Run(jobArgs []string) error {
	if len(jobArgs) == 0 {
		return nil
	}

	jobArgsChannel := make(chan string, len(jobArgs))
	for _, arg := range jobArgs {
		jobArgsChannel <- arg
	}
	close(jobArgsChannel)

	limiter := time.NewTicker(w.interval)
	defer limiter.Stop()

	var errs []error
	for arg := range jobArgsChannel {
		<-limiter.C
		if err := w.jobCallback(arg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
