package notificationsworker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clubvoice/clubvoice/internal/clubs"
)

type fakeClubLister struct {
	clubs []*clubs.Club
	err   error
}

func (f *fakeClubLister) List(ctx context.Context) ([]*clubs.Club, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.clubs, nil
}

type fakeProcessor struct {
	processed []string
	delivered int
	err       error
}

func (f *fakeProcessor) ProcessPending(ctx context.Context, clubID string) (int, error) {
	f.processed = append(f.processed, clubID)
	if f.err != nil {
		return 0, f.err
	}
	return f.delivered, nil
}

func TestSweepProcessesActiveClubs(t *testing.T) {
	lister := &fakeClubLister{clubs: []*clubs.Club{
		{ID: "club-1", IsActive: true},
		{ID: "club-2", IsActive: false},
		{ID: "club-3", IsActive: true},
	}}
	proc := &fakeProcessor{delivered: 2}
	sweeper := NewPendingSweeper(lister, proc, nil)

	sweeper.sweep(context.Background())

	if len(proc.processed) != 2 {
		t.Fatalf("expected 2 clubs processed, got %v", proc.processed)
	}
	if proc.processed[0] != "club-1" || proc.processed[1] != "club-3" {
		t.Fatalf("expected inactive club skipped, got %v", proc.processed)
	}
}

func TestSweepContinuesPastClubErrors(t *testing.T) {
	lister := &fakeClubLister{clubs: []*clubs.Club{
		{ID: "club-1", IsActive: true},
		{ID: "club-2", IsActive: true},
	}}
	proc := &fakeProcessor{err: errors.New("boom")}
	sweeper := NewPendingSweeper(lister, proc, nil)

	sweeper.sweep(context.Background())

	if len(proc.processed) != 2 {
		t.Fatalf("expected both clubs attempted, got %v", proc.processed)
	}
}

func TestSweepHandlesListError(t *testing.T) {
	proc := &fakeProcessor{}
	sweeper := NewPendingSweeper(&fakeClubLister{err: errors.New("boom")}, proc, nil)
	sweeper.sweep(context.Background())
	if len(proc.processed) != 0 {
		t.Fatalf("expected no processing on list error")
	}
}

func TestSweeperRunNilDeps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sweeper := NewPendingSweeper(nil, nil, nil).WithInterval(time.Millisecond)
	go sweeper.Run(ctx)
	cancel()
}

func TestSweeperRunLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	lister := &fakeClubLister{clubs: []*clubs.Club{{ID: "club-1", IsActive: true}}}
	proc := &fakeProcessor{delivered: 1}
	sweeper := NewPendingSweeper(lister, proc, nil).WithInterval(5 * time.Millisecond)
	go sweeper.Run(ctx)
	time.Sleep(15 * time.Millisecond)
	cancel()
}
