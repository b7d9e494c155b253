package console

import (
	"sync"
)

// inflight is the advisory "saving" flag of one control surface. It is not a
// lock around the backend; it only refuses a second request from the same surface.
type inflight struct {
	mu   sync.Mutex
	busy bool
}

func (f *inflight) acquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false
	}
	f.busy = true
	return true
}

func (f *inflight) release() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *inflight) active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// gather runs fns concurrently and returns the first error in argument order.
func gather(fns ...func() error) error {
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			errs[i] = fn()
		}(i, fn)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
