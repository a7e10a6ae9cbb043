package service

import (
	"testing"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/transport"
)

func TestCanTransitionFullMatrix(t *testing.T) {
	all := []transport.AppointmentStatus{
		transport.AppointmentStatusScheduled,
		transport.AppointmentStatusConfirmed,
		transport.AppointmentStatusCompleted,
		transport.AppointmentStatusCancelled,
		transport.AppointmentStatusNoShow,
	}

	allowed := map[transport.AppointmentStatus]map[transport.AppointmentStatus]bool{
		transport.AppointmentStatusScheduled: {
			transport.AppointmentStatusConfirmed: true,
			transport.AppointmentStatusCompleted: true,
			transport.AppointmentStatusCancelled: true,
			transport.AppointmentStatusNoShow:    true,
		},
		transport.AppointmentStatusConfirmed: {
			transport.AppointmentStatusCompleted: true,
			transport.AppointmentStatusNoShow:    true,
		},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			got := CanTransition(from, to)
			if got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionAllowsDirectCompletion(t *testing.T) {
	if !CanTransition(transport.AppointmentStatusScheduled, transport.AppointmentStatusCompleted) {
		t.Fatal("scheduled must complete directly, confirmation is optional")
	}
}

func TestCanTransitionConfirmedToNoShow(t *testing.T) {
	if !CanTransition(transport.AppointmentStatusConfirmed, transport.AppointmentStatusNoShow) {
		t.Fatal("confirmed must allow a manual no_show report")
	}
}

func TestCanTransitionConfirmedCannotCancel(t *testing.T) {
	if CanTransition(transport.AppointmentStatusConfirmed, transport.AppointmentStatusCancelled) {
		t.Fatal("confirmed must not cancel, only scheduled can")
	}
}

func TestCanTransitionRejectsSelfTransition(t *testing.T) {
	for status := range allowedTransitions {
		if CanTransition(status, status) {
			t.Errorf("CanTransition(%s, %s) must be false", status, status)
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition(transport.AppointmentStatus("pending"), transport.AppointmentStatusConfirmed) {
		t.Fatal("unknown statuses must never transition")
	}
}

func TestIsTerminal(t *testing.T) {
	terminals := []transport.AppointmentStatus{
		transport.AppointmentStatusCompleted,
		transport.AppointmentStatusCancelled,
		transport.AppointmentStatusNoShow,
	}
	for _, status := range terminals {
		if !IsTerminal(status) {
			t.Errorf("expected %s to be terminal", status)
		}
	}

	if IsTerminal(transport.AppointmentStatusScheduled) {
		t.Error("scheduled is not terminal")
	}
	if IsTerminal(transport.AppointmentStatusConfirmed) {
		t.Error("confirmed is not terminal")
	}
	if IsTerminal(transport.AppointmentStatus("pending")) {
		t.Error("unknown statuses are not terminal")
	}
}
