package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"

	"github.com/google/uuid"
)

// GetBusinessHours returns the weekly opening hours of the salon. All seven
// weekdays are present in the response, days without a window are closed.
func (s *Service) GetBusinessHours(ctx context.Context, tenantID uuid.UUID) (*transport.BusinessHoursResponse, error) {
	rows, err := s.repo.ListBusinessHours(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	byWeekday := make(map[int]repository.BusinessHour, len(rows))
	for _, row := range rows {
		byWeekday[row.Weekday] = row
	}

	days := make([]transport.WeekdayHours, 7)
	for weekday := 0; weekday < 7; weekday++ {
		day := transport.WeekdayHours{Weekday: weekday}
		if row, ok := byWeekday[weekday]; ok {
			day.Opens = row.OpensAt
			day.Closes = row.ClosesAt
		}
		days[weekday] = day
	}

	return &transport.BusinessHoursResponse{Days: days}, nil
}

// UpdateBusinessHours replaces the weekly schedule. Weekdays missing from the
// request are stored as closed.
func (s *Service) UpdateBusinessHours(ctx context.Context, tenantID uuid.UUID, req transport.UpdateBusinessHoursRequest) (*transport.BusinessHoursResponse, error) {
	seen := make(map[int]bool, len(req.Days))
	byWeekday := make(map[int]transport.WeekdayHours, len(req.Days))
	for _, day := range req.Days {
		if seen[day.Weekday] {
			return nil, apperr.Validation(fmt.Sprintf("weekday %d appears more than once", day.Weekday))
		}
		seen[day.Weekday] = true

		if err := validateHoursWindow(day); err != nil {
			return nil, err
		}
		byWeekday[day.Weekday] = day
	}

	now := s.clk.Now()
	items := make([]repository.BusinessHour, 7)
	for weekday := 0; weekday < 7; weekday++ {
		item := repository.BusinessHour{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Weekday:   weekday,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if day, ok := byWeekday[weekday]; ok {
			item.OpensAt = day.Opens
			item.ClosesAt = day.Closes
		}
		items[weekday] = item
	}

	if err := s.repo.ReplaceBusinessHours(ctx, tenantID, items); err != nil {
		return nil, err
	}

	s.log.Info("business hours updated", "tenantId", tenantID)

	return s.GetBusinessHours(ctx, tenantID)
}

// validateHoursWindow checks one weekday entry. Opens and closes must come
// together, parse as HH:MM, and open strictly before close.
func validateHoursWindow(day transport.WeekdayHours) error {
	if (day.Opens == nil) != (day.Closes == nil) {
		return apperr.Validation(fmt.Sprintf("weekday %d must set both opens and closes, or neither", day.Weekday))
	}
	if day.Opens == nil {
		return nil
	}

	opens, err := parseClock(*day.Opens)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("weekday %d has an invalid opens time, expected HH:MM", day.Weekday))
	}
	closes, err := parseClock(*day.Closes)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("weekday %d has an invalid closes time, expected HH:MM", day.Weekday))
	}
	if opens >= closes {
		return apperr.Validation(fmt.Sprintf("weekday %d must open before it closes", day.Weekday))
	}

	return nil
}

// validateWithinHours checks that [start, end) fits inside the day's window.
// A nil row or a row without a window means the salon is closed that day.
// Appointments must start and end on the same calendar day.
func validateWithinHours(start, end time.Time, hours *repository.BusinessHour) error {
	if hours == nil || hours.OpensAt == nil || hours.ClosesAt == nil {
		return apperr.OutOfHours("the salon is closed on this day")
	}

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return apperr.OutOfHours("appointment must start and end on the same day")
	}

	opens, err := parseClock(*hours.OpensAt)
	if err != nil {
		return fmt.Errorf("invalid stored opening time %q: %w", *hours.OpensAt, err)
	}
	closes, err := parseClock(*hours.ClosesAt)
	if err != nil {
		return fmt.Errorf("invalid stored closing time %q: %w", *hours.ClosesAt, err)
	}

	startSec := secondsOfDay(start)
	endSec := secondsOfDay(end)
	if startSec < opens || endSec > closes {
		return apperr.OutOfHours(fmt.Sprintf("appointment must fall between %s and %s", *hours.OpensAt, *hours.ClosesAt))
	}

	return nil
}

// parseClock parses an HH:MM clock string into seconds since midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse(clockFormat, value)
	if err != nil {
		return 0, err
	}
	return t.Hour()*3600 + t.Minute()*60, nil
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
