// Package jobs holds maintenance work that runs outside the request path,
// driven by the worker command.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/scheduling"
)

// Completer is the ledger operation the sweep needs.
type Completer interface {
	CompleteElapsed(ctx context.Context, date, tm string) (int64, error)
}

// CompletionSweep marks Scheduled appointments whose slot has fully elapsed
// as Completed. It never frees a slot.
type CompletionSweep struct {
	ledger Completer
	loc    *time.Location
	now    func() time.Time
	logger zerolog.Logger
}

func NewCompletionSweep(ledger Completer, loc *time.Location, logger zerolog.Logger) *CompletionSweep {
	if loc == nil {
		loc = time.Local
	}
	return &CompletionSweep{
		ledger: ledger,
		loc:    loc,
		now:    time.Now,
		logger: logger.With().Str("job", "completion_sweep").Logger(),
	}
}

func (s *CompletionSweep) Name() string { return "completion_sweep" }

// Cutoff returns the civil date and time before which a slot start counts as
// elapsed: one slot interval before now, in the clinic's zone.
func (s *CompletionSweep) Cutoff() (date, tm string) {
	t := s.now().In(s.loc).Add(-scheduling.SlotInterval)
	return t.Format(doctor.DateLayout), t.Format("15:04")
}

func (s *CompletionSweep) Run(ctx context.Context) error {
	date, tm := s.Cutoff()
	s.logger.Debug().Str("cutoff_date", date).Str("cutoff_time", tm).Msg("sweep started")

	n, err := s.ledger.CompleteElapsed(ctx, date, tm)
	if err != nil {
		return fmt.Errorf("complete elapsed appointments: %w", err)
	}
	s.logger.Info().Int64("completed", n).Str("cutoff_date", date).Str("cutoff_time", tm).Msg("sweep finished")
	return nil
}
