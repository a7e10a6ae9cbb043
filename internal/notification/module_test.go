package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	apptrepo "github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/events"
	"github.com/ArthurRodrigues4433/aluviagendamentos/internal/notification/inapp"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/apperr"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/clock"
	"github.com/ArthurRodrigues4433/aluviagendamentos/platform/logger"

	"github.com/google/uuid"
)

type testSender struct {
	welcomeCalls    int
	bookedCalls     int
	confirmedCalls  int
	cancelledCalls  int
	escalationCalls int
	lastRecipient   string
}

func (s *testSender) SendWelcomeEmail(_ context.Context, toEmail, _ string) error {
	s.welcomeCalls++
	s.lastRecipient = toEmail
	return nil
}
func (s *testSender) SendAppointmentBookedEmail(_ context.Context, toEmail string, _, _, _, _ string) error {
	s.bookedCalls++
	s.lastRecipient = toEmail
	return nil
}
func (s *testSender) SendAppointmentConfirmedEmail(_ context.Context, toEmail string, _, _, _ string) error {
	s.confirmedCalls++
	s.lastRecipient = toEmail
	return nil
}
func (s *testSender) SendAppointmentCancelledEmail(_ context.Context, toEmail string, _, _, _ string) error {
	s.cancelledCalls++
	s.lastRecipient = toEmail
	return nil
}
func (s *testSender) SendEscalationAlertEmail(_ context.Context, toEmail string, _, _, _, _ string) error {
	s.escalationCalls++
	s.lastRecipient = toEmail
	return nil
}

func testDetails() *apptrepo.NotificationDetails {
	return &apptrepo.NotificationDetails{
		AppointmentID:    uuid.New(),
		TenantID:         uuid.New(),
		Status:           "scheduled",
		StartTime:        time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC),
		EndTime:          time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		ClientName:       "Mariana Costa",
		ClientEmail:      "mariana@example.com",
		ClientPhone:      "+5511999990000",
		ServiceName:      "Corte Feminino",
		ProfessionalName: "Paula",
		SalonName:        "Studio Aluvi",
		SalonEmail:       "contato@studioaluvi.com.br",
	}
}

type testDetailsReader struct {
	details *apptrepo.NotificationDetails
}

func (r *testDetailsReader) GetNotificationDetails(context.Context, uuid.UUID, uuid.UUID) (*apptrepo.NotificationDetails, error) {
	if r.details == nil {
		return nil, apperr.NotFound("appointment not found")
	}
	return r.details, nil
}

type testFeed struct {
	entries []inapp.SendParams
}

func (f *testFeed) Send(_ context.Context, p inapp.SendParams) error {
	f.entries = append(f.entries, p)
	return nil
}

func newTestModule(sender *testSender) *Module {
	clk := clock.NewFixed(time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC))
	return New(nil, sender, nil, nil, nil, clk, logger.New("development"))
}

func newTestModuleWithFeed(sender *testSender, details *apptrepo.NotificationDetails, feed *testFeed) *Module {
	clk := clock.NewFixed(time.Date(2026, 3, 2, 13, 0, 0, 0, time.UTC))
	return New(nil, sender, nil, &testDetailsReader{details: details}, feed, clk, logger.New("development"))
}

func TestHandleTenantRegisteredSendsWelcomeEmail(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	err := m.Handle(context.Background(), events.TenantRegistered{
		TenantID: uuid.New(),
		Name:     "Studio Aluvi",
		Email:    "contato@studioaluvi.com.br",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if sender.welcomeCalls != 1 {
		t.Fatalf("expected 1 welcome email, got %d", sender.welcomeCalls)
	}
	if sender.lastRecipient != "contato@studioaluvi.com.br" {
		t.Fatalf("unexpected recipient: %q", sender.lastRecipient)
	}
}

func TestHandleTenantRegisteredSkipsBlankEmail(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender)

	err := m.Handle(context.Background(), events.TenantRegistered{
		TenantID: uuid.New(),
		Name:     "Studio Aluvi",
		Email:    "   ",
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if sender.welcomeCalls != 0 {
		t.Fatalf("expected no welcome email for blank address, got %d", sender.welcomeCalls)
	}
}

func TestQueueWithoutOutboxIsNoop(t *testing.T) {
	m := newTestModule(&testSender{})

	err := m.Handle(context.Background(), events.AppointmentBooked{
		TenantID:      uuid.New(),
		AppointmentID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("expected booked event without outbox to be a no-op, got error: %v", err)
	}
}

func TestAppointmentBookedPushesFeedEntry(t *testing.T) {
	feed := &testFeed{}
	m := newTestModuleWithFeed(&testSender{}, testDetails(), feed)
	appointmentID := uuid.New()

	err := m.Handle(context.Background(), events.AppointmentBooked{
		TenantID:      uuid.New(),
		AppointmentID: appointmentID,
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(feed.entries) != 1 {
		t.Fatalf("expected 1 feed entry, got %d", len(feed.entries))
	}
	entry := feed.entries[0]
	if entry.Category != inapp.CategorySuccess {
		t.Errorf("expected category %q, got %q", inapp.CategorySuccess, entry.Category)
	}
	if entry.AppointmentID == nil || *entry.AppointmentID != appointmentID {
		t.Errorf("expected feed entry linked to appointment %s", appointmentID)
	}
	if !strings.Contains(entry.Content, "Mariana Costa") {
		t.Errorf("expected feed content to name the client: %q", entry.Content)
	}
}

func TestEscalationOpenedPushesWarningFeedEntry(t *testing.T) {
	feed := &testFeed{}
	m := newTestModuleWithFeed(&testSender{}, testDetails(), feed)
	deadline := time.Date(2026, 3, 2, 14, 25, 0, 0, time.UTC)

	err := m.Handle(context.Background(), events.EscalationOpened{
		TenantID:         uuid.New(),
		AppointmentID:    uuid.New(),
		TicketID:         uuid.New(),
		ResponseDeadline: deadline,
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(feed.entries) != 1 {
		t.Fatalf("expected 1 feed entry, got %d", len(feed.entries))
	}
	entry := feed.entries[0]
	if entry.Category != inapp.CategoryWarning {
		t.Errorf("expected category %q, got %q", inapp.CategoryWarning, entry.Category)
	}
	_, deadlineStr := localTimes(deadline)
	if !strings.Contains(entry.Content, deadlineStr) {
		t.Errorf("expected feed content to name the response deadline %s: %q", deadlineStr, entry.Content)
	}
}

func TestStatusChangedFeedOnlyForStaffRelevantStatuses(t *testing.T) {
	feed := &testFeed{}
	m := newTestModuleWithFeed(&testSender{}, testDetails(), feed)
	tenantID := uuid.New()

	for _, status := range []string{"confirmed", "no_show", "completed"} {
		err := m.Handle(context.Background(), events.AppointmentStatusChanged{
			TenantID:      tenantID,
			AppointmentID: uuid.New(),
			NewStatus:     status,
		})
		if err != nil {
			t.Fatalf("status %s: Handle returned error: %v", status, err)
		}
	}

	// confirmed and no_show land in the feed; completed does not.
	if len(feed.entries) != 2 {
		t.Fatalf("expected 2 feed entries, got %d", len(feed.entries))
	}
	if feed.entries[0].Category != inapp.CategoryInfo {
		t.Errorf("confirmed: expected category %q, got %q", inapp.CategoryInfo, feed.entries[0].Category)
	}
	if feed.entries[1].Category != inapp.CategoryError {
		t.Errorf("no_show: expected category %q, got %q", inapp.CategoryError, feed.entries[1].Category)
	}
}

func TestFeedSkippedWhenDetailsMissing(t *testing.T) {
	feed := &testFeed{}
	m := newTestModuleWithFeed(&testSender{}, nil, feed)

	err := m.Handle(context.Background(), events.AppointmentBooked{
		TenantID:      uuid.New(),
		AppointmentID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
	if len(feed.entries) != 0 {
		t.Fatalf("expected no feed entries for a purged appointment, got %d", len(feed.entries))
	}
}

func TestStatusChangeKindsCoverClientFacingStatuses(t *testing.T) {
	expected := map[string]string{
		"confirmed": KindAppointmentConfirmed,
		"cancelled": KindAppointmentCancelled,
		"completed": KindAppointmentCompleted,
		"no_show":   KindAppointmentNoShow,
	}
	for status, kind := range expected {
		if got := statusChangeKinds[status]; got != kind {
			t.Errorf("status %s: expected kind %s, got %s", status, kind, got)
		}
	}
	if _, ok := statusChangeKinds["scheduled"]; ok {
		t.Error("scheduled must not map to an outbox kind; booking has its own event")
	}
}

func TestAppointmentWhatsAppMessagesRenderAllKinds(t *testing.T) {
	d := testDetails()
	kinds := []string{
		KindAppointmentBooked,
		KindAppointmentConfirmed,
		KindAppointmentCancelled,
		KindAppointmentCompleted,
		KindAppointmentNoShow,
		KindAppointmentReminder,
	}
	for _, kind := range kinds {
		msg := appointmentWhatsAppMessage(kind, d)
		if msg == "" {
			t.Errorf("kind %s: expected a message, got empty string", kind)
			continue
		}
		if !strings.Contains(msg, d.ClientName) {
			t.Errorf("kind %s: message does not address the client: %q", kind, msg)
		}
		if !strings.Contains(msg, d.ServiceName) {
			t.Errorf("kind %s: message does not name the service: %q", kind, msg)
		}
	}
}

func TestAppointmentWhatsAppMessageUnknownKindIsEmpty(t *testing.T) {
	if msg := appointmentWhatsAppMessage("invoice_paid", testDetails()); msg != "" {
		t.Fatalf("expected empty message for unknown kind, got %q", msg)
	}
}

func TestAppointmentWhatsAppMessageFallsBackToGenericName(t *testing.T) {
	d := testDetails()
	d.ClientName = "  "
	msg := appointmentWhatsAppMessage(KindAppointmentBooked, d)
	if !strings.Contains(msg, "cliente") {
		t.Fatalf("expected generic salutation for blank client name, got %q", msg)
	}
}

func TestEscalationWhatsAppMessageNamesDeadline(t *testing.T) {
	d := testDetails()
	deadline := time.Date(2026, 3, 2, 14, 25, 0, 0, time.UTC)
	msg := escalationWhatsAppMessage(d, deadline)
	if msg == "" {
		t.Fatal("expected escalation message, got empty string")
	}
	_, wantTime := localTimes(deadline)
	if !strings.Contains(msg, wantTime) {
		t.Fatalf("expected message to name the response deadline %s: %q", wantTime, msg)
	}
	if !strings.Contains(msg, d.SalonName) {
		t.Fatalf("expected message to name the salon: %q", msg)
	}
}

func TestComputeOutboxRetryDelayBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Minute},
		{attempt: 1, want: time.Minute},
		{attempt: 2, want: 2 * time.Minute},
		{attempt: 3, want: 4 * time.Minute},
		{attempt: 4, want: 8 * time.Minute},
		{attempt: 10, want: 60 * time.Minute},
	}
	for _, tc := range cases {
		if got := computeOutboxRetryDelay(tc.attempt); got != tc.want {
			t.Errorf("attempt %d: expected delay %v, got %v", tc.attempt, tc.want, got)
		}
	}
}
