package dicentis

import (
	"errors"
	"time"

	ws "github.com/dwaller/dicentis-bridge/pkg/sockets"
	"go.uber.org/zap"
)

// startPolling launches the two recurring requests — discussion list and
// interpretation routings — each on its own ticker. Both are created
// together and torn down together through the shared stop channel. Polling
// only ever starts from the authenticated path.
func (s *service) startPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pollStop != nil || s.phase != Authenticated {
		return
	}
	stop := make(chan struct{})
	s.pollStop = stop
	interval := s.cfg.ClampedPollInterval()
	s.logger.Debug("polling started", zap.Duration("interval", interval))
	go s.pollLoop(GetDiscussionList, interval, stop)
	go s.pollLoop(GetInterpretationRoutings, interval, stop)
}

// stopPollingLocked is idempotent and safe when no timers exist. Leaking a
// ticker past a disconnect would mean duplicate in-flight requests on a
// replaced connection.
func (s *service) stopPollingLocked() {
	if s.pollStop == nil {
		return
	}
	close(s.pollStop)
	s.pollStop = nil
}

func (s *service) pollLoop(op Operation, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := s.send(op, struct{}{}); err != nil {
				if errors.Is(err, ErrNotConnected) || errors.Is(err, ws.ErrClosed) {
					// the disconnect path tears this loop down; no need to report.
					return
				}
				s.sendIfErr(err)
			}
		}
	}
}
