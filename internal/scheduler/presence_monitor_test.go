package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"

	"github.com/google/uuid"
)

type testPresenceConfig struct {
	tick   time.Duration
	grace  time.Duration
	window time.Duration
}

func (c testPresenceConfig) GetPresenceTick() time.Duration           { return c.tick }
func (c testPresenceConfig) GetPresenceGrace() time.Duration          { return c.grace }
func (c testPresenceConfig) GetPresenceResponseWindow() time.Duration { return c.window }

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *fakeBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *fakeBus) Subscribe(string, events.Handler) {}

type fakePresenceStore struct {
	overdue     []repository.Appointment
	due         []repository.EscalationTicket
	openForAppt map[uuid.UUID]bool

	listCutoff  time.Time
	created     []repository.EscalationTicket
	casErr      error
	casResult   *repository.Appointment
	casVersions []int64
	resolved    []uuid.UUID
	voided      []uuid.UUID
	voidedWith  []string
	resolveOK   bool
	voidOK      bool
}

func (s *fakePresenceStore) ListOverdueScheduled(_ context.Context, cutoff time.Time, _ int) ([]repository.Appointment, error) {
	s.listCutoff = cutoff
	return s.overdue, nil
}

func (s *fakePresenceStore) CreateTicketIfAbsent(_ context.Context, ticket repository.EscalationTicket) (*repository.EscalationTicket, bool, error) {
	if s.openForAppt[ticket.AppointmentID] {
		return nil, false, nil
	}
	if s.openForAppt == nil {
		s.openForAppt = map[uuid.UUID]bool{}
	}
	s.openForAppt[ticket.AppointmentID] = true
	ticket.Status = repository.TicketStatusOpen
	s.created = append(s.created, ticket)
	return &ticket, true, nil
}

func (s *fakePresenceStore) ListDueTickets(_ context.Context, _ time.Time, _ int) ([]repository.EscalationTicket, error) {
	return s.due, nil
}

func (s *fakePresenceStore) UpdateStatusCAS(_ context.Context, _, _ uuid.UUID, _ string, expectedVersion int64, _ time.Time, _ repository.TxFunc) (*repository.Appointment, error) {
	s.casVersions = append(s.casVersions, expectedVersion)
	if s.casErr != nil {
		return nil, s.casErr
	}
	return s.casResult, nil
}

func (s *fakePresenceStore) ResolveTicketIfOpen(_ context.Context, id uuid.UUID, _ string, _ time.Time) (bool, error) {
	s.resolved = append(s.resolved, id)
	return s.resolveOK, nil
}

func (s *fakePresenceStore) VoidTicketIfOpen(_ context.Context, id uuid.UUID, resolution string, _ time.Time) (bool, error) {
	s.voided = append(s.voided, id)
	s.voidedWith = append(s.voidedWith, resolution)
	return s.voidOK, nil
}

var sweepStart = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

func newTestMonitor(store *fakePresenceStore, bus *fakeBus, clk *clock.Fixed) *PresenceMonitor {
	cfg := testPresenceConfig{tick: 30 * time.Second, grace: 20 * time.Minute, window: 5 * time.Minute}
	return NewPresenceMonitor(cfg, store, bus, clk, logger.New("development"))
}

func overdueAppointment(version int64) repository.Appointment {
	return repository.Appointment{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		ClientID: uuid.New(),
		Status:   "scheduled",
		Version:  version,
		// Started 25 minutes before the sweep, past the 20 minute grace.
		StartTime: sweepStart.Add(-25 * time.Minute),
		EndTime:   sweepStart.Add(35 * time.Minute),
	}
}

func TestSweepFlagsOverdueAppointment(t *testing.T) {
	appt := overdueAppointment(3)
	store := &fakePresenceStore{overdue: []repository.Appointment{appt}}
	bus := &fakeBus{}
	clk := clock.NewFixed(sweepStart)

	newTestMonitor(store, bus, clk).Sweep(context.Background())

	if len(store.created) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(store.created))
	}
	ticket := store.created[0]
	if ticket.AppointmentID != appt.ID {
		t.Fatalf("ticket references wrong appointment: %s", ticket.AppointmentID)
	}
	if ticket.AppointmentVersion != 3 {
		t.Fatalf("expected ticket to capture version 3, got %d", ticket.AppointmentVersion)
	}
	wantDeadline := sweepStart.Add(5 * time.Minute)
	if !ticket.ResponseDeadline.Equal(wantDeadline) {
		t.Fatalf("expected response deadline %v, got %v", wantDeadline, ticket.ResponseDeadline)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	opened, ok := bus.published[0].(events.EscalationOpened)
	if !ok {
		t.Fatalf("expected EscalationOpened, got %T", bus.published[0])
	}
	if opened.AppointmentID != appt.ID {
		t.Fatalf("event references wrong appointment: %s", opened.AppointmentID)
	}
	if !opened.ResponseDeadline.Equal(wantDeadline) {
		t.Fatalf("event carries wrong deadline: %v", opened.ResponseDeadline)
	}
}

func TestSweepUsesGraceCutoff(t *testing.T) {
	store := &fakePresenceStore{}
	clk := clock.NewFixed(sweepStart)

	newTestMonitor(store, &fakeBus{}, clk).Sweep(context.Background())

	want := sweepStart.Add(-20 * time.Minute)
	if !store.listCutoff.Equal(want) {
		t.Fatalf("expected overdue cutoff %v, got %v", want, store.listCutoff)
	}
}

func TestSweepFlagsAppointmentOnlyOnce(t *testing.T) {
	appt := overdueAppointment(1)
	store := &fakePresenceStore{overdue: []repository.Appointment{appt}}
	bus := &fakeBus{}
	clk := clock.NewFixed(sweepStart)
	monitor := newTestMonitor(store, bus, clk)

	monitor.Sweep(context.Background())
	clk.Advance(30 * time.Second)
	monitor.Sweep(context.Background())
	clk.Advance(30 * time.Second)
	monitor.Sweep(context.Background())

	if len(store.created) != 1 {
		t.Fatalf("expected exactly 1 ticket across repeated sweeps, got %d", len(store.created))
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected exactly 1 escalation event, got %d", len(bus.published))
	}
}

func TestSweepMarksNoShowAtDeadline(t *testing.T) {
	apptID := uuid.New()
	tenantID := uuid.New()
	clientID := uuid.New()
	ticket := repository.EscalationTicket{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		AppointmentID:      apptID,
		AppointmentVersion: 2,
		Status:             repository.TicketStatusOpen,
		ResponseDeadline:   sweepStart.Add(-time.Second),
	}
	store := &fakePresenceStore{
		due:       []repository.EscalationTicket{ticket},
		casResult: &repository.Appointment{ID: apptID, TenantID: tenantID, ClientID: clientID, Status: "no_show", Version: 3},
		resolveOK: true,
	}
	bus := &fakeBus{}

	newTestMonitor(store, bus, clock.NewFixed(sweepStart)).Sweep(context.Background())

	if len(store.casVersions) != 1 || store.casVersions[0] != 2 {
		t.Fatalf("expected no-show compare against captured version 2, got %v", store.casVersions)
	}
	if len(store.resolved) != 1 || store.resolved[0] != ticket.ID {
		t.Fatalf("expected ticket %s resolved, got %v", ticket.ID, store.resolved)
	}
	if len(store.voided) != 0 {
		t.Fatalf("expected no voided tickets, got %v", store.voided)
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(bus.published))
	}
	changed, ok := bus.published[0].(events.AppointmentStatusChanged)
	if !ok {
		t.Fatalf("expected AppointmentStatusChanged, got %T", bus.published[0])
	}
	if changed.NewStatus != "no_show" || changed.OldStatus != "scheduled" {
		t.Fatalf("unexpected transition %s -> %s", changed.OldStatus, changed.NewStatus)
	}
	if changed.AppointmentID != apptID {
		t.Fatalf("event references wrong appointment: %s", changed.AppointmentID)
	}
}

func TestSweepHumanSettlementWinsRace(t *testing.T) {
	ticket := repository.EscalationTicket{
		ID:                 uuid.New(),
		TenantID:           uuid.New(),
		AppointmentID:      uuid.New(),
		AppointmentVersion: 2,
		Status:             repository.TicketStatusOpen,
		ResponseDeadline:   sweepStart.Add(-time.Minute),
	}
	store := &fakePresenceStore{
		due:    []repository.EscalationTicket{ticket},
		casErr: apperr.StaleVersion("appointment was modified concurrently"),
		voidOK: true,
	}
	bus := &fakeBus{}

	newTestMonitor(store, bus, clock.NewFixed(sweepStart)).Sweep(context.Background())

	if len(store.resolved) != 0 {
		t.Fatalf("expected no resolved tickets when a human settled first, got %v", store.resolved)
	}
	if len(store.voided) != 1 || store.voided[0] != ticket.ID {
		t.Fatalf("expected ticket %s voided, got %v", ticket.ID, store.voided)
	}
	if store.voidedWith[0] != repository.ResolutionSuperseded {
		t.Fatalf("expected superseded resolution, got %s", store.voidedWith[0])
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected losing the race to stay silent, got %d events", len(bus.published))
	}
}

func TestSweepVoidsTicketWhenAppointmentGone(t *testing.T) {
	ticket := repository.EscalationTicket{
		ID:                 uuid.New(),
		TenantID:           uuid.New(),
		AppointmentID:      uuid.New(),
		AppointmentVersion: 1,
		Status:             repository.TicketStatusOpen,
		ResponseDeadline:   sweepStart.Add(-time.Minute),
	}
	store := &fakePresenceStore{
		due:    []repository.EscalationTicket{ticket},
		casErr: apperr.NotFound("appointment not found"),
		voidOK: true,
	}
	bus := &fakeBus{}

	newTestMonitor(store, bus, clock.NewFixed(sweepStart)).Sweep(context.Background())

	if len(store.voided) != 1 {
		t.Fatalf("expected vanished appointment to void its ticket, got %v", store.voided)
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events for a vanished appointment, got %d", len(bus.published))
	}
}

func TestSweepStaysSilentWhenTicketAlreadySettled(t *testing.T) {
	ticket := repository.EscalationTicket{
		ID:                 uuid.New(),
		TenantID:           uuid.New(),
		AppointmentID:      uuid.New(),
		AppointmentVersion: 1,
		Status:             repository.TicketStatusOpen,
		ResponseDeadline:   sweepStart.Add(-time.Minute),
	}
	store := &fakePresenceStore{
		due:       []repository.EscalationTicket{ticket},
		casResult: &repository.Appointment{ID: ticket.AppointmentID, Status: "no_show", Version: 2},
		resolveOK: false,
	}
	bus := &fakeBus{}

	newTestMonitor(store, bus, clock.NewFixed(sweepStart)).Sweep(context.Background())

	if len(bus.published) != 0 {
		t.Fatalf("expected no event when the ticket was already settled, got %d", len(bus.published))
	}
}

func TestNewPresenceMonitorAppliesDefaults(t *testing.T) {
	m := NewPresenceMonitor(testPresenceConfig{}, &fakePresenceStore{}, &fakeBus{}, clock.NewFixed(sweepStart), logger.New("development"))

	if m.tick != defaultPresenceTick {
		t.Fatalf("expected default tick %v, got %v", defaultPresenceTick, m.tick)
	}
	if m.grace != defaultPresenceGrace {
		t.Fatalf("expected default grace %v, got %v", defaultPresenceGrace, m.grace)
	}
	if m.responseWindow != defaultPresenceResponseWindow {
		t.Fatalf("expected default response window %v, got %v", defaultPresenceResponseWindow, m.responseWindow)
	}
}
