package pipeline

import (
	"testing"
	"time"
)

func TestNextCronTime_DailyAtThree(t *testing.T) {
	after := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 * * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}
	want := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextCronTime_SameDay(t *testing.T) {
	after := time.Date(2026, 8, 28, 1, 0, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 * * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}
	want := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextCronTime_ListField(t *testing.T) {
	after := time.Date(2026, 8, 28, 0, 10, 0, 0, time.UTC)
	next, err := nextCronTime("15,45 * * * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}
	want := time.Date(2026, 8, 28, 0, 15, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestParseCron_RejectsBadExpressions(t *testing.T) {
	for _, expr := range []string{"", "0 3 *", "x * * * *", "1,y * * * *"} {
		if _, err := parseCron(expr); err == nil {
			t.Errorf("parseCron(%q) succeeded, want error", expr)
		}
	}
}
