package service

import (
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/transport"
)

// allowedTransitions defines the appointment lifecycle. Scheduled appointments
// can be confirmed, cancelled, completed directly, or marked no_show.
// Confirmed appointments can only be completed or marked no_show; cancellation
// must happen before confirmation. Completed, cancelled, and no_show are
// terminal.
var allowedTransitions = map[transport.AppointmentStatus][]transport.AppointmentStatus{
	transport.AppointmentStatusScheduled: {
		transport.AppointmentStatusConfirmed,
		transport.AppointmentStatusCompleted,
		transport.AppointmentStatusCancelled,
		transport.AppointmentStatusNoShow,
	},
	transport.AppointmentStatusConfirmed: {
		transport.AppointmentStatusCompleted,
		transport.AppointmentStatusNoShow,
	},
	transport.AppointmentStatusCompleted: {},
	transport.AppointmentStatusCancelled: {},
	transport.AppointmentStatusNoShow:    {},
}

// CanTransition reports whether an appointment may move from one status to
// another. Unknown statuses never transition.
func CanTransition(from, to transport.AppointmentStatus) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	for _, target := range targets {
		if target == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status accepts no further transitions.
func IsTerminal(status transport.AppointmentStatus) bool {
	targets, ok := allowedTransitions[status]
	return ok && len(targets) == 0
}
