package privacy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingPurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (p *recordingPurger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.cutoffs = append(p.cutoffs, cutoff)
	return 3, nil
}

func (p *recordingPurger) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(purger Purger, cfg Config) *Service {
	s := NewService(purger, cfg, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestPurgeExpired(t *testing.T) {
	tests := []struct {
		name       string
		days       int
		wantCalls  int
		wantCutoff time.Time
	}{
		{name: "disabled", days: 0, wantCalls: 0},
		{name: "thirty days", days: 30, wantCalls: 1, wantCutoff: fixedNow.AddDate(0, 0, -30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			purger := &recordingPurger{}
			s := newTestService(purger, Config{RetentionDays: tt.days})

			n, err := s.PurgeExpired(context.Background())
			require.NoError(t, err)
			require.Equal(t, tt.wantCalls, purger.calls())
			if tt.wantCalls > 0 {
				assert.EqualValues(t, 3, n)
				assert.True(t, tt.wantCutoff.Equal(purger.cutoffs[0]))
			} else {
				assert.Zero(t, n)
			}
		})
	}
}

func TestPurgeOlderThan(t *testing.T) {
	purger := &recordingPurger{}
	s := newTestService(purger, Config{})

	_, err := s.PurgeOlderThan(context.Background(), 0)
	assert.Error(t, err)

	_, err = s.PurgeOlderThan(context.Background(), 48*time.Hour)
	require.NoError(t, err)
	assert.True(t, fixedNow.Add(-48*time.Hour).Equal(purger.cutoffs[0]))

	purger.err = errors.New("database is locked")
	_, err = s.PurgeOlderThan(context.Background(), time.Hour)
	assert.ErrorContains(t, err, "database is locked")
}

func TestRunStopsWithContext(t *testing.T) {
	purger := &recordingPurger{}
	s := NewService(purger, Config{RetentionDays: 7, CleanupInterval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return purger.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestRetentionInfo(t *testing.T) {
	info := NewService(&recordingPurger{}, DefaultConfig(), nil).RetentionInfo()
	assert.Equal(t, false, info["transcripts_stored"])
	assert.Equal(t, "until deleted", info["result_retention"])
	assert.Equal(t, "24h0m0s", info["cleanup_interval"])

	info = NewService(&recordingPurger{}, Config{RetentionDays: 90}, nil).RetentionInfo()
	assert.Equal(t, "90 days", info["result_retention"])
}
