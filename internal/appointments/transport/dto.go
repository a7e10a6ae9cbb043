package transport

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// BookAppointmentRequest contains data for booking an appointment.
// The end time is derived from the service duration.
type BookAppointmentRequest struct {
	ClientID       uuid.UUID `json:"clientId" validate:"required"`
	ProfessionalID uuid.UUID `json:"professionalId" validate:"required"`
	ServiceID      uuid.UUID `json:"serviceId" validate:"required"`
	StartTime      time.Time `json:"startTime" validate:"required"`
	Notes          *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// RescheduleAppointmentRequest moves an appointment to a new start time.
// Version must match the current record or the move is rejected.
type RescheduleAppointmentRequest struct {
	StartTime time.Time `json:"startTime" validate:"required"`
	Version   int64     `json:"version" validate:"required,min=1"`
}

// UpdateAppointmentStatusRequest asks for a lifecycle transition.
// Version must match the current record or the transition is rejected.
type UpdateAppointmentStatusRequest struct {
	Status  AppointmentStatus `json:"status" validate:"required,oneof=confirmed completed cancelled no_show"`
	Version int64             `json:"version" validate:"required,min=1"`
}

// ListAppointmentsRequest contains query parameters for listing appointments.
type ListAppointmentsRequest struct {
	ProfessionalID string  `form:"professionalId"`
	ClientID       string  `form:"clientId"`
	Status         *string `form:"status"`
	StartFrom      string  `form:"startFrom"`
	StartTo        string  `form:"startTo"`
	Page           int     `form:"page"`
	PageSize       int     `form:"pageSize"`
	SortBy         string  `form:"sortBy"`
	SortOrder      string  `form:"sortOrder"`
}

// AvailableSlotsRequest contains query parameters for the free slots endpoint.
type AvailableSlotsRequest struct {
	ProfessionalID string `form:"professionalId" validate:"required"`
	ServiceID      string `form:"serviceId" validate:"required"`
	StartDate      string `form:"startDate" validate:"required"`
	EndDate        string `form:"endDate" validate:"required"`
}

// AppointmentClientInfo embeds basic client details in appointment responses.
type AppointmentClientInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
}

// AppointmentResponse represents an appointment in API responses.
type AppointmentResponse struct {
	ID                   uuid.UUID             `json:"id"`
	ProfessionalID       uuid.UUID             `json:"professionalId"`
	ServiceID            uuid.UUID             `json:"serviceId"`
	StartTime            time.Time             `json:"startTime"`
	EndTime              time.Time             `json:"endTime"`
	Status               AppointmentStatus     `json:"status"`
	Version              int64                 `json:"version"`
	Notes                *string               `json:"notes,omitempty"`
	LoyaltyPointsAwarded bool                  `json:"loyaltyPointsAwarded"`
	CompletedAt          *time.Time            `json:"completedAt,omitempty"`
	CancelledAt          *time.Time            `json:"cancelledAt,omitempty"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
	Client               AppointmentClientInfo `json:"client"`
	ServiceName          string                `json:"serviceName"`
	ProfessionalName     string                `json:"professionalName"`
}

// AppointmentListResponse wraps a paginated list of appointments.
type AppointmentListResponse struct {
	Items      []AppointmentResponse `json:"items"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalPages int                   `json:"totalPages"`
}

// TimeSlot is one bookable window.
type TimeSlot struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// DaySlots groups the free slots of a single day.
type DaySlots struct {
	Date  string     `json:"date"`
	Slots []TimeSlot `json:"slots"`
}

// AvailableSlotsResponse lists free slots per day of the requested range.
type AvailableSlotsResponse struct {
	Days []DaySlots `json:"days"`
}

// WeekdayHours describes the opening window of one weekday.
// Weekday follows time.Weekday numbering, Sunday is 0.
// A nil Opens and Closes means the salon is closed that day.
type WeekdayHours struct {
	Weekday int     `json:"weekday" validate:"min=0,max=6"`
	Opens   *string `json:"opens,omitempty" validate:"omitempty,clocktime"`
	Closes  *string `json:"closes,omitempty" validate:"omitempty,clocktime"`
}

// BusinessHoursResponse is the full weekly schedule of a salon.
type BusinessHoursResponse struct {
	Days []WeekdayHours `json:"days"`
}

// UpdateBusinessHoursRequest replaces the weekly schedule.
// Weekdays missing from the request are stored as closed.
type UpdateBusinessHoursRequest struct {
	Days []WeekdayHours `json:"days" validate:"required,min=1,max=7,dive"`
}

// EscalationTicketResponse represents a late-client escalation in API responses.
type EscalationTicketResponse struct {
	ID               uuid.UUID  `json:"id"`
	AppointmentID    uuid.UUID  `json:"appointmentId"`
	Status           string     `json:"status"`
	ResponseDeadline time.Time  `json:"responseDeadline"`
	Resolution       *string    `json:"resolution,omitempty"`
	ResolvedAt       *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	ClientName       string     `json:"clientName"`
	ServiceName      string     `json:"serviceName"`
	StartTime        time.Time  `json:"startTime"`
}

// EscalationListResponse wraps the open escalations of a salon.
type EscalationListResponse struct {
	Items []EscalationTicketResponse `json:"items"`
}
