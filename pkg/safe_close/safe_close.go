package safe_close

import (
	"sync"
)

// SafeClose coordinates graceful shutdown across independent goroutines.
// Each participant attaches a closure that receives a done callback and a
// close signal channel; SendCloseSignal broadcasts the signal once and
// WaitClosed blocks until every participant reports done.
type SafeClose struct {
	mu          sync.Mutex
	wg          sync.WaitGroup
	closeSignal chan struct{}
	closed      bool
	err         error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach starts f in its own goroutine. f must call done exactly once when
// it has finished cleaning up, and should return once closeSignal fires.
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal broadcasts the close signal. The first non-nil error wins;
// repeated calls are no-ops.
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.closeSignal)
}

// WaitClosed blocks until all attached participants have called done and
// returns the error passed to SendCloseSignal, if any.
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CloseSignal exposes the broadcast channel for select loops.
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}
