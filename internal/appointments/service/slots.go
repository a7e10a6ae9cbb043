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

// AvailableSlots computes the open time slots of a professional for a date
// range, stepped by the service duration and excluding booked appointments.
func (s *Service) AvailableSlots(ctx context.Context, tenantID uuid.UUID, req transport.AvailableSlotsRequest) (*transport.AvailableSlotsResponse, error) {
	professionalID, err := uuid.Parse(req.ProfessionalID)
	if err != nil {
		return nil, apperr.BadRequest("invalid professionalId format")
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, apperr.BadRequest("invalid serviceId format")
	}

	professionalExists, err := s.professionals.ExistsProfessional(ctx, tenantID, professionalID)
	if err != nil {
		return nil, err
	}
	if !professionalExists {
		return nil, apperr.NotFound("professional not found")
	}

	svc, err := s.catalog.GetBookable(ctx, tenantID, serviceID)
	if err != nil {
		return nil, err
	}

	startDate, endDate, err := parseAndValidateDateRange(req.StartDate, req.EndDate, maxSlotRangeDays)
	if err != nil {
		return nil, err
	}

	hours, err := s.repo.ListBusinessHours(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byWeekday := make(map[int]repository.BusinessHour, len(hours))
	for _, row := range hours {
		byWeekday[row.Weekday] = row
	}

	rangeEnd := endDate.AddDate(0, 0, 1)
	booked, err := s.repo.ListActiveForRange(ctx, tenantID, professionalID, startDate, rangeEnd)
	if err != nil {
		return nil, err
	}

	var days []transport.DaySlots
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		daySlots := transport.DaySlots{Date: d.Format(dateFormat), Slots: []transport.TimeSlot{}}

		row, ok := byWeekday[int(d.Weekday())]
		if ok && row.OpensAt != nil && row.ClosesAt != nil {
			windowStart, windowEnd, err := windowOnDate(d, *row.OpensAt, *row.ClosesAt)
			if err != nil {
				return nil, err
			}
			daySlots.Slots = generateSlotsForWindow(windowStart, windowEnd, svc.DurationMinutes, booked)
		}

		days = append(days, daySlots)
	}

	return &transport.AvailableSlotsResponse{Days: days}, nil
}

// parseAndValidateDateRange parses dates and validates the range.
func parseAndValidateDateRange(startStr, endStr string, maxDays int) (time.Time, time.Time, error) {
	startDate, err := time.Parse(dateFormat, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.BadRequest("invalid startDate format")
	}
	endDate, err := time.Parse(dateFormat, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.BadRequest("invalid endDate format")
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, apperr.BadRequest("endDate must be on or after startDate")
	}
	if endDate.Sub(startDate).Hours()/24 > float64(maxDays) {
		return time.Time{}, time.Time{}, apperr.BadRequest(fmt.Sprintf("date range cannot exceed %d days", maxDays))
	}
	return startDate, endDate, nil
}

// windowOnDate anchors an HH:MM window on a calendar date in UTC.
func windowOnDate(d time.Time, opens, closes string) (time.Time, time.Time, error) {
	o, err := time.Parse(clockFormat, opens)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid stored opening time %q: %w", opens, err)
	}
	c, err := time.Parse(clockFormat, closes)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid stored closing time %q: %w", closes, err)
	}

	windowStart := time.Date(d.Year(), d.Month(), d.Day(), o.Hour(), o.Minute(), 0, 0, time.UTC)
	windowEnd := time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC)
	return windowStart, windowEnd, nil
}

// generateSlotsForWindow generates available slots within a window, excluding
// slots that overlap a booked appointment. Slots touching an appointment
// boundary remain available.
func generateSlotsForWindow(windowStart, windowEnd time.Time, slotDurationMinutes int, booked []repository.Appointment) []transport.TimeSlot {
	slots := []transport.TimeSlot{}
	slotDuration := time.Duration(slotDurationMinutes) * time.Minute
	if slotDuration <= 0 {
		return slots
	}

	for slotStart := windowStart; !slotStart.Add(slotDuration).After(windowEnd); slotStart = slotStart.Add(slotDuration) {
		slotEnd := slotStart.Add(slotDuration)

		conflicts := false
		for _, appt := range booked {
			if slotStart.Before(appt.EndTime) && slotEnd.After(appt.StartTime) {
				conflicts = true
				break
			}
		}

		if !conflicts {
			slots = append(slots, transport.TimeSlot{StartTime: slotStart, EndTime: slotEnd})
		}
	}

	return slots
}
