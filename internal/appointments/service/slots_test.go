package service

import (
	"testing"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
)

func TestGenerateSlotsForWindowSteps(t *testing.T) {
	windowStart := at(monday, 8, 0, 0)
	windowEnd := at(monday, 10, 0, 0)

	slots := generateSlotsForWindow(windowStart, windowEnd, 30, nil)

	if len(slots) != 4 {
		t.Fatalf("expected 4 slots in a 2-hour window at 30 minutes, got %d", len(slots))
	}
	if !slots[0].StartTime.Equal(windowStart) {
		t.Fatalf("expected first slot at window start, got %v", slots[0].StartTime)
	}
	if !slots[3].EndTime.Equal(windowEnd) {
		t.Fatalf("expected last slot to end at window close, got %v", slots[3].EndTime)
	}
}

func TestGenerateSlotsForWindowNoFit(t *testing.T) {
	slots := generateSlotsForWindow(at(monday, 8, 0, 0), at(monday, 8, 20, 0), 30, nil)
	if len(slots) != 0 {
		t.Fatalf("expected no slots when the service does not fit, got %d", len(slots))
	}
}

func TestGenerateSlotsForWindowExcludesOverlaps(t *testing.T) {
	booked := []repository.Appointment{
		{StartTime: at(monday, 9, 0, 0), EndTime: at(monday, 9, 30, 0)},
	}

	slots := generateSlotsForWindow(at(monday, 8, 0, 0), at(monday, 10, 0, 0), 30, booked)

	if len(slots) != 3 {
		t.Fatalf("expected 3 free slots around a booked 09:00-09:30, got %d", len(slots))
	}
	for _, slot := range slots {
		if slot.StartTime.Equal(at(monday, 9, 0, 0)) {
			t.Fatal("expected the booked 09:00 slot to be excluded")
		}
	}
}

func TestGenerateSlotsForWindowBoundaryTouchStaysFree(t *testing.T) {
	booked := []repository.Appointment{
		{StartTime: at(monday, 8, 30, 0), EndTime: at(monday, 9, 0, 0)},
	}

	slots := generateSlotsForWindow(at(monday, 8, 0, 0), at(monday, 9, 30, 0), 30, booked)

	if len(slots) != 2 {
		t.Fatalf("expected the adjacent 08:00 and 09:00 slots to stay free, got %d", len(slots))
	}
	if !slots[0].StartTime.Equal(at(monday, 8, 0, 0)) || !slots[1].StartTime.Equal(at(monday, 9, 0, 0)) {
		t.Fatalf("unexpected free slots: %v and %v", slots[0].StartTime, slots[1].StartTime)
	}
}

func TestGenerateSlotsForWindowZeroDuration(t *testing.T) {
	slots := generateSlotsForWindow(at(monday, 8, 0, 0), at(monday, 10, 0, 0), 0, nil)
	if len(slots) != 0 {
		t.Fatalf("expected no slots for a zero-duration service, got %d", len(slots))
	}
}

func TestParseAndValidateDateRange(t *testing.T) {
	if _, _, err := parseAndValidateDateRange("2026-03-02", "2026-03-08", 31); err != nil {
		t.Fatalf("expected valid week range to parse, got %v", err)
	}

	if _, _, err := parseAndValidateDateRange("2026-03-02", "2026-03-02", 31); err != nil {
		t.Fatalf("expected single-day range to parse, got %v", err)
	}

	_, _, err := parseAndValidateDateRange("02-03-2026", "2026-03-08", 31)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for malformed startDate, got %v", err)
	}

	_, _, err = parseAndValidateDateRange("2026-03-08", "2026-03-02", 31)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for inverted range, got %v", err)
	}

	_, _, err = parseAndValidateDateRange("2026-03-02", "2026-05-02", 31)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for range past the cap, got %v", err)
	}
}

func TestWindowOnDate(t *testing.T) {
	start, end, err := windowOnDate(monday, "08:00", "18:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(at(monday, 8, 0, 0)) {
		t.Fatalf("expected window start 08:00 UTC, got %v", start)
	}
	if !end.Equal(at(monday, 18, 0, 0)) {
		t.Fatalf("expected window end 18:00 UTC, got %v", end)
	}

	if _, _, err := windowOnDate(monday, "junk", "18:00"); err == nil {
		t.Fatal("expected malformed stored clock to error")
	}
}
