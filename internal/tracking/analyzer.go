package tracking

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/tag-tracker/internal/logging"
)

// HaltReason says why continuous analysis stopped.
type HaltReason string

const (
	ReasonEndOfSession    HaltReason = "end-of-session"
	ReasonTagUnresolved   HaltReason = "tag-unresolved"
	ReasonDetectionFailed HaltReason = "detection-failed"
	ReasonStopped         HaltReason = "stopped"
	ReasonLimit           HaltReason = "limit"
	ReasonCanceled        HaltReason = "canceled"
)

// FrameOutcome is the result of one Advance call.
type FrameOutcome struct {
	Continue bool        `json:"continue"`
	Reason   HaltReason  `json:"reason,omitempty"`
	Frame    FrameResult `json:"frame"`
}

// RunSummary is the result of Run.
type RunSummary struct {
	Processed int          `json:"processed"`
	Start     int          `json:"start"`
	End       int          `json:"end"`
	Outcome   FrameOutcome `json:"outcome"`
}

// Analyzer drives continuous analysis of a session. It holds no timers: an
// external scheduler, or Run, calls Advance until it halts.
type Analyzer struct {
	s *Session
}

// NewAnalyzer returns the analyzer for s.
func NewAnalyzer(s *Session) *Analyzer {
	return &Analyzer{s: s}
}

// Start enables auto-advance.
func (a *Analyzer) Start() {
	if !a.s.running {
		a.s.running = true
		a.s.log.WithField(logging.FrameKey, a.s.current).Info("continuous analysis started")
	}
}

// Stop disables auto-advance.
func (a *Analyzer) Stop() {
	a.s.stopRunning("stopped")
}

// Running reports whether auto-advance is active.
func (a *Analyzer) Running() bool { return a.s.running }

// Advance moves to the next frame and processes it.
//
// It halts, clearing the running state, when the analyzer is not running,
// when the last frame has been reached, when either tag ends Unresolved, or
// on a detection failure if the configuration says so. A Deleted tag does
// not halt.
func (a *Analyzer) Advance() (FrameOutcome, error) {
	s := a.s
	if !s.running {
		return FrameOutcome{Reason: ReasonStopped, Frame: s.last}, nil
	}
	if s.current >= s.FrameCount {
		return a.halt(ReasonEndOfSession, s.last), nil
	}

	res, err := s.moveTo(s.current + 1)
	if err != nil {
		s.stopRunning("error")
		return FrameOutcome{Reason: ReasonStopped}, err
	}

	switch {
	case res.Unresolved():
		return a.halt(ReasonTagUnresolved, res), nil
	case res.Failed && s.cfg.HaltOnDetectionFailure:
		return a.halt(ReasonDetectionFailed, res), nil
	case s.current >= s.FrameCount:
		return a.halt(ReasonEndOfSession, res), nil
	}
	return FrameOutcome{Continue: true, Frame: res}, nil
}

func (a *Analyzer) halt(reason HaltReason, res FrameResult) FrameOutcome {
	a.s.stopRunning(string(reason))
	return FrameOutcome{Reason: reason, Frame: res}
}

// Run starts analysis and advances until a halt, until limit frames have
// been processed (limit <= 0 means no limit), or until ctx is done.
func (a *Analyzer) Run(ctx context.Context, limit int) (RunSummary, error) {
	sum := RunSummary{Start: a.s.current, End: a.s.current}
	a.Start()
	for {
		if err := ctx.Err(); err != nil {
			a.s.stopRunning(string(ReasonCanceled))
			sum.Outcome = FrameOutcome{Reason: ReasonCanceled, Frame: a.s.last}
			return sum, nil
		}
		if limit > 0 && sum.Processed >= limit {
			a.s.stopRunning(string(ReasonLimit))
			sum.Outcome = FrameOutcome{Reason: ReasonLimit, Frame: a.s.last}
			return sum, nil
		}

		before := a.s.current
		out, err := a.Advance()
		if a.s.current != before {
			sum.Processed++
		}
		sum.End = a.s.current
		if err != nil {
			sum.Outcome = out
			return sum, err
		}
		if !out.Continue {
			sum.Outcome = out
			return sum, nil
		}
	}
}

// stopRunning clears the running state, logging the reason when it was set.
func (s *Session) stopRunning(reason string) {
	if !s.running {
		return
	}
	s.running = false
	s.log.WithFields(logrus.Fields{
		logging.FrameKey: s.current,
		"reason":         reason,
	}).Info("continuous analysis halted")
}
