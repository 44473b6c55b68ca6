package session

import (
	"log/slog"
	"testing"
	"time"

	"github.com/quangkl1998/polymarket/internal/config"
)

func newTestScheduler(t *testing.T, rolloverHours int) *Scheduler {
	t.Helper()
	s, err := New(config.SessionConfig{
		SlugTemplate:  "btc-up-or-down-%s-et",
		Timezone:      "UTC",
		RolloverHours: rolloverHours,
	}, slog.Default())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func TestSlugAt_HourLabels(t *testing.T) {
	s := newTestScheduler(t, 1)

	cases := []struct {
		hour int
		want string
	}{
		{0, "btc-up-or-down-12am-et"},
		{1, "btc-up-or-down-1am-et"},
		{11, "btc-up-or-down-11am-et"},
		{12, "btc-up-or-down-12pm-et"},
		{13, "btc-up-or-down-1pm-et"},
		{23, "btc-up-or-down-11pm-et"},
	}

	for _, tc := range cases {
		at := time.Date(2026, 8, 28, tc.hour, 30, 0, 0, time.UTC)
		if got := s.SlugAt(at); got != tc.want {
			t.Errorf("SlugAt(hour %d) = %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestSlugAt_MultiHourSpanAnchorsAtOpeningHour(t *testing.T) {
	s := newTestScheduler(t, 4)

	at := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC) // inside [12,16)
	if got, want := s.SlugAt(at), "btc-up-or-down-12pm-et"; got != want {
		t.Fatalf("SlugAt = %q, want %q", got, want)
	}
}

func TestNextRollover(t *testing.T) {
	s := newTestScheduler(t, 1)

	at := time.Date(2026, 8, 28, 14, 59, 59, 0, time.UTC)
	want := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	if got := s.NextRollover(at); !got.Equal(want) {
		t.Fatalf("NextRollover = %v, want %v", got, want)
	}

	// Exactly on the boundary: the session containing 15:00:00 ends at 16:00.
	at = want
	want = time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC)
	if got := s.NextRollover(at); !got.Equal(want) {
		t.Fatalf("NextRollover on boundary = %v, want %v", got, want)
	}
}

func TestCurrent_UsesInjectedClock(t *testing.T) {
	s := newTestScheduler(t, 1).WithClock(func() time.Time {
		return time.Date(2026, 8, 28, 9, 15, 0, 0, time.UTC)
	})

	if got, want := s.Current(), "btc-up-or-down-9am-et"; got != want {
		t.Fatalf("Current = %q, want %q", got, want)
	}
}
