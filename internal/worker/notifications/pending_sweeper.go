package notificationsworker

import (
	"context"
	"time"

	"github.com/clubvoice/clubvoice/internal/clubs"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

type clubLister interface {
	List(ctx context.Context) ([]*clubs.Club, error)
}

type pendingProcessor interface {
	ProcessPending(ctx context.Context, clubID string) (int, error)
}

// PendingSweeper periodically drains pending notification rows: first
// attempts that never ran and failed rows a staff member requeued through
// the retry endpoint. Delivery itself lives in the notifications service;
// the sweeper only provides the periodic trigger.
type PendingSweeper struct {
	clubs    clubLister
	notifier pendingProcessor
	logger   *logging.Logger
	interval time.Duration
}

func NewPendingSweeper(clubs clubLister, notifier pendingProcessor, logger *logging.Logger) *PendingSweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &PendingSweeper{
		clubs:    clubs,
		notifier: notifier,
		logger:   logger,
		interval: 1 * time.Minute,
	}
}

func (s *PendingSweeper) WithInterval(d time.Duration) *PendingSweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *PendingSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *PendingSweeper) sweep(ctx context.Context) {
	if s.clubs == nil || s.notifier == nil {
		return
	}
	all, err := s.clubs.List(ctx)
	if err != nil {
		s.logger.Error("pending sweep: list clubs failed", "error", err)
		return
	}
	for _, club := range all {
		if !club.IsActive {
			continue
		}
		delivered, err := s.notifier.ProcessPending(ctx, club.ID)
		if err != nil {
			s.logger.Error("pending sweep failed", "error", err, "club_id", club.ID)
			continue
		}
		if delivered > 0 {
			s.logger.Info("pending notifications delivered", "club_id", club.ID, "count", delivered)
		}
	}
}
