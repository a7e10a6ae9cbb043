package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/transport"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type fakeStore struct {
	appt *repository.Appointment

	casErr      error
	casTargets  []string
	casVersions []int64
	hookRan     bool
	voidOK      bool
	voidedWith  []string
}

func (s *fakeStore) Create(_ context.Context, appt *repository.Appointment) (*repository.Appointment, error) {
	return appt, nil
}

func (s *fakeStore) GetByID(_ context.Context, _, _ uuid.UUID) (*repository.Appointment, error) {
	if s.appt == nil {
		return nil, apperr.NotFound("appointment not found")
	}
	return s.appt, nil
}

func (s *fakeStore) Reschedule(_ context.Context, _, _ uuid.UUID, _, _ time.Time, _ int64) (*repository.Appointment, error) {
	return s.appt, nil
}

func (s *fakeStore) UpdateStatusCAS(ctx context.Context, _, _ uuid.UUID, target string, expectedVersion int64, _ time.Time, inTx repository.TxFunc) (*repository.Appointment, error) {
	s.casTargets = append(s.casTargets, target)
	s.casVersions = append(s.casVersions, expectedVersion)
	if s.casErr != nil {
		return nil, s.casErr
	}
	if inTx != nil {
		s.hookRan = true
		if err := inTx(ctx, nil); err != nil {
			return nil, err
		}
	}
	updated := *s.appt
	updated.Status = target
	updated.Version = expectedVersion + 1
	return &updated, nil
}

func (s *fakeStore) List(_ context.Context, _ repository.ListParams) (*repository.ListResult, error) {
	return &repository.ListResult{}, nil
}

func (s *fakeStore) ListActiveForRange(_ context.Context, _, _ uuid.UUID, _, _ time.Time) ([]repository.Appointment, error) {
	return nil, nil
}

func (s *fakeStore) ListOpenTickets(_ context.Context, _ uuid.UUID) ([]repository.EscalationTicket, error) {
	return nil, nil
}

func (s *fakeStore) VoidOpenTicketForAppointment(_ context.Context, _ uuid.UUID, resolution string, _ time.Time) (bool, error) {
	s.voidedWith = append(s.voidedWith, resolution)
	return s.voidOK, nil
}

func (s *fakeStore) ListBusinessHours(_ context.Context, _ uuid.UUID) ([]repository.BusinessHour, error) {
	return nil, nil
}

func (s *fakeStore) GetBusinessHoursForWeekday(_ context.Context, _ uuid.UUID, _ int) (*repository.BusinessHour, error) {
	return nil, nil
}

func (s *fakeStore) ReplaceBusinessHours(_ context.Context, _ uuid.UUID, _ []repository.BusinessHour) error {
	return nil
}

type fakeAwarder struct {
	calls  int
	points int64
	err    error
}

func (a *fakeAwarder) AwardForAppointment(_ context.Context, _ pgx.Tx, _, _ uuid.UUID) (int64, error) {
	a.calls++
	if a.err != nil {
		return 0, a.err
	}
	return a.points, nil
}

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *fakeBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *fakeBus) Subscribe(string, events.Handler) {}

var transitionNow = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func newTransitionService(store *fakeStore, awarder LoyaltyAwarder, bus events.Bus) *Service {
	return New(store, nil, nil, nil, awarder, bus, nil, 0, clock.NewFixed(transitionNow), logger.New("development"))
}

func transitionAppointment(status string, version int64) *repository.Appointment {
	return &repository.Appointment{
		ID:        uuid.New(),
		TenantID:  uuid.New(),
		ClientID:  uuid.New(),
		Status:    status,
		Version:   version,
		StartTime: transitionNow.Add(-time.Hour),
		EndTime:   transitionNow.Add(-30 * time.Minute),
	}
}

func TestTransitionDirectCompletionAwards(t *testing.T) {
	appt := transitionAppointment("scheduled", 3)
	store := &fakeStore{appt: appt}
	awarder := &fakeAwarder{points: 50}
	bus := &fakeBus{}

	resp, err := newTransitionService(store, awarder, bus).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusCompleted, Version: 3},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != transport.AppointmentStatusCompleted {
		t.Fatalf("expected completed, got %s", resp.Status)
	}
	if resp.Version != 4 {
		t.Fatalf("expected version bump to 4, got %d", resp.Version)
	}
	if awarder.calls != 1 {
		t.Fatalf("expected 1 award call, got %d", awarder.calls)
	}
	if !store.hookRan {
		t.Fatal("expected the award to run inside the status transaction")
	}
	if len(store.casVersions) != 1 || store.casVersions[0] != 3 {
		t.Fatalf("expected CAS against version 3, got %v", store.casVersions)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	changed, ok := bus.published[0].(events.AppointmentStatusChanged)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if changed.OldStatus != "scheduled" || changed.NewStatus != "completed" {
		t.Fatalf("unexpected event statuses: %s -> %s", changed.OldStatus, changed.NewStatus)
	}
}

func TestTransitionAwardFailureFailsTransition(t *testing.T) {
	appt := transitionAppointment("confirmed", 2)
	store := &fakeStore{appt: appt}
	awarder := &fakeAwarder{err: errors.New("loyalty ledger unavailable")}
	bus := &fakeBus{}

	_, err := newTransitionService(store, awarder, bus).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusCompleted, Version: 2},
	)
	if err == nil {
		t.Fatal("expected the transition to fail with the award")
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events after a failed transition, got %d", len(bus.published))
	}
	if len(store.voidedWith) != 0 {
		t.Fatalf("expected no ticket void after a failed transition, got %v", store.voidedWith)
	}
}

func TestTransitionCompletionWithoutAwarder(t *testing.T) {
	appt := transitionAppointment("scheduled", 1)
	store := &fakeStore{appt: appt}

	_, err := newTransitionService(store, nil, nil).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusCompleted, Version: 1},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.hookRan {
		t.Fatal("expected no transaction hook without an awarder")
	}
}

func TestTransitionCompletionVoidsOpenTicket(t *testing.T) {
	appt := transitionAppointment("scheduled", 4)
	store := &fakeStore{appt: appt, voidOK: true}
	awarder := &fakeAwarder{points: 10}

	_, err := newTransitionService(store, awarder, &fakeBus{}).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusCompleted, Version: 4},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.voidedWith) != 1 || store.voidedWith[0] != "completed" {
		t.Fatalf("expected the open ticket voided as completed, got %v", store.voidedWith)
	}
}

func TestTransitionConfirmedNoShow(t *testing.T) {
	appt := transitionAppointment("confirmed", 2)
	store := &fakeStore{appt: appt}
	awarder := &fakeAwarder{}

	resp, err := newTransitionService(store, awarder, &fakeBus{}).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusNoShow, Version: 2},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != transport.AppointmentStatusNoShow {
		t.Fatalf("expected no_show, got %s", resp.Status)
	}
	if awarder.calls != 0 {
		t.Fatalf("expected no award for a no-show, got %d calls", awarder.calls)
	}
}

func TestTransitionConfirmedCancelRejected(t *testing.T) {
	appt := transitionAppointment("confirmed", 1)
	store := &fakeStore{appt: appt}

	_, err := newTransitionService(store, nil, nil).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusCancelled, Version: 1},
	)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if len(store.casTargets) != 0 {
		t.Fatalf("expected no status write, got %v", store.casTargets)
	}
}

func TestTransitionTerminalRejected(t *testing.T) {
	appt := transitionAppointment("completed", 2)
	store := &fakeStore{appt: appt}

	_, err := newTransitionService(store, nil, nil).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusConfirmed, Version: 2},
	)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransitionStaleVersion(t *testing.T) {
	appt := transitionAppointment("scheduled", 5)
	store := &fakeStore{appt: appt, casErr: apperr.StaleVersion("appointment was modified concurrently")}
	bus := &fakeBus{}

	_, err := newTransitionService(store, nil, bus).Transition(
		context.Background(), appt.TenantID, appt.ID,
		transport.UpdateAppointmentStatusRequest{Status: transport.AppointmentStatusConfirmed, Version: 4},
	)
	if !apperr.Is(err, apperr.KindStaleVersion) {
		t.Fatalf("expected stale version, got %v", err)
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events after a stale transition, got %d", len(bus.published))
	}
}
