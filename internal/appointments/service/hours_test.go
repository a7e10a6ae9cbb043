package service

import (
	"testing"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
)

// monday is an arbitrary Monday used to anchor hour windows.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func at(base time.Time, hour, min, sec int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hour, min, sec, 0, time.UTC)
}

func hoursRow(opens, closes string) *repository.BusinessHour {
	return &repository.BusinessHour{Weekday: 1, OpensAt: &opens, ClosesAt: &closes}
}

func TestValidateWithinHoursClosedDay(t *testing.T) {
	err := validateWithinHours(at(monday, 10, 0, 0), at(monday, 11, 0, 0), nil)
	if !apperr.Is(err, apperr.KindOutOfHours) {
		t.Fatalf("expected out of hours for missing row, got %v", err)
	}

	err = validateWithinHours(at(monday, 10, 0, 0), at(monday, 11, 0, 0), &repository.BusinessHour{Weekday: 1})
	if !apperr.Is(err, apperr.KindOutOfHours) {
		t.Fatalf("expected out of hours for windowless row, got %v", err)
	}
}

func TestValidateWithinHoursInsideWindow(t *testing.T) {
	row := hoursRow("08:00", "18:00")

	if err := validateWithinHours(at(monday, 9, 0, 0), at(monday, 9, 30, 0), row); err != nil {
		t.Fatalf("expected 09:00-09:30 to fit inside 08:00-18:00, got %v", err)
	}
}

func TestValidateWithinHoursBoundariesAreInclusive(t *testing.T) {
	row := hoursRow("08:00", "18:00")

	if err := validateWithinHours(at(monday, 8, 0, 0), at(monday, 9, 0, 0), row); err != nil {
		t.Fatalf("expected start at opening time to be allowed, got %v", err)
	}
	if err := validateWithinHours(at(monday, 17, 0, 0), at(monday, 18, 0, 0), row); err != nil {
		t.Fatalf("expected end at closing time to be allowed, got %v", err)
	}
}

func TestValidateWithinHoursEndPastClose(t *testing.T) {
	row := hoursRow("08:00", "18:00")

	// 60-minute service starting 17:30 would end 18:30
	err := validateWithinHours(at(monday, 17, 30, 0), at(monday, 18, 30, 0), row)
	if !apperr.Is(err, apperr.KindOutOfHours) {
		t.Fatalf("expected out of hours for end past close, got %v", err)
	}
}

func TestValidateWithinHoursStartBeforeOpen(t *testing.T) {
	row := hoursRow("08:00", "18:00")

	err := validateWithinHours(at(monday, 7, 30, 0), at(monday, 8, 30, 0), row)
	if !apperr.Is(err, apperr.KindOutOfHours) {
		t.Fatalf("expected out of hours for start before open, got %v", err)
	}
}

func TestValidateWithinHoursSecondsPrecision(t *testing.T) {
	row := hoursRow("08:00", "18:00")

	err := validateWithinHours(at(monday, 7, 59, 59), at(monday, 9, 0, 0), row)
	if !apperr.Is(err, apperr.KindOutOfHours) {
		t.Fatalf("expected 07:59:59 start to be rejected, got %v", err)
	}

	err = validateWithinHours(at(monday, 17, 0, 0), at(monday, 18, 0, 1), row)
	if !apperr.Is(err, apperr.KindOutOfHours) {
		t.Fatalf("expected 18:00:01 end to be rejected, got %v", err)
	}
}

func TestValidateWithinHoursRejectsMidnightCrossing(t *testing.T) {
	row := hoursRow("08:00", "23:59")

	tuesday := monday.AddDate(0, 0, 1)
	err := validateWithinHours(at(monday, 23, 30, 0), at(tuesday, 0, 15, 0), row)
	if !apperr.Is(err, apperr.KindOutOfHours) {
		t.Fatalf("expected midnight-crossing appointment to be rejected, got %v", err)
	}
}

func strPtr(s string) *string { return &s }

func TestValidateHoursWindowRequiresBothOrNeither(t *testing.T) {
	err := validateHoursWindow(transport.WeekdayHours{Weekday: 1, Opens: strPtr("08:00")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for one-sided window, got %v", err)
	}

	if err := validateHoursWindow(transport.WeekdayHours{Weekday: 0}); err != nil {
		t.Fatalf("expected closed day to validate, got %v", err)
	}
}

func TestValidateHoursWindowRejectsBadClock(t *testing.T) {
	err := validateHoursWindow(transport.WeekdayHours{Weekday: 1, Opens: strPtr("ab:cd"), Closes: strPtr("18:00")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for malformed opens, got %v", err)
	}

	err = validateHoursWindow(transport.WeekdayHours{Weekday: 1, Opens: strPtr("08:00"), Closes: strPtr("25:00")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for malformed closes, got %v", err)
	}
}

func TestValidateHoursWindowRejectsInvertedWindow(t *testing.T) {
	err := validateHoursWindow(transport.WeekdayHours{Weekday: 1, Opens: strPtr("18:00"), Closes: strPtr("08:00")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for inverted window, got %v", err)
	}

	err = validateHoursWindow(transport.WeekdayHours{Weekday: 1, Opens: strPtr("08:00"), Closes: strPtr("08:00")})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for zero-length window, got %v", err)
	}
}
