package notification

import (
	"fmt"
	"strings"
	"time"

	apptrepo "github.com/ArthurRodrigues4433/aluviagendamentos/internal/appointments/repository"
)

// localTimes formats an instant in the salon's local time. Brazil dropped
// daylight saving in 2019, so the offset is fixed.
func localTimes(t time.Time) (dateStr, timeStr string) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return local.Format("02/01/2006"), local.Format("15:04")
}

// appointmentWhatsAppMessage renders the client-facing WhatsApp body for an
// appointment notification. Unknown kinds render empty and are skipped.
func appointmentWhatsAppMessage(kind string, d *apptrepo.NotificationDetails) string {
	name := defaultName(d.ClientName, "cliente")
	dateStr, timeStr := localTimes(d.StartTime)

	switch kind {
	case KindAppointmentBooked:
		return fmt.Sprintf("Olá, %s! Seu horário de %s com %s no %s foi reservado para %s às %s. Até breve!",
			name, d.ServiceName, d.ProfessionalName, d.SalonName, dateStr, timeStr)
	case KindAppointmentConfirmed:
		return fmt.Sprintf("Tudo certo, %s! Seu horário de %s no %s está confirmado para %s às %s.",
			name, d.ServiceName, d.SalonName, dateStr, timeStr)
	case KindAppointmentCancelled:
		return fmt.Sprintf("Olá, %s. Seu horário de %s no %s, marcado para %s às %s, foi cancelado. Quer remarcar? É só responder esta mensagem.",
			name, d.ServiceName, d.SalonName, dateStr, timeStr)
	case KindAppointmentCompleted:
		return fmt.Sprintf("Obrigado pela visita, %s! Esperamos que tenha gostado do seu %s. Seus pontos de fidelidade já foram creditados.",
			name, d.ServiceName)
	case KindAppointmentNoShow:
		return fmt.Sprintf("Olá, %s. Sentimos sua falta no horário de %s em %s às %s. Quando quiser, é só agendar um novo horário.",
			name, d.ServiceName, dateStr, timeStr)
	case KindAppointmentReminder:
		return fmt.Sprintf("Lembrete: %s, seu horário de %s com %s no %s é %s às %s. Contamos com você!",
			name, d.ServiceName, d.ProfessionalName, d.SalonName, dateStr, timeStr)
	}
	return ""
}

// escalationWhatsAppMessage nudges a late client to confirm they are coming.
func escalationWhatsAppMessage(d *apptrepo.NotificationDetails, deadline time.Time) string {
	name := defaultName(d.ClientName, "cliente")
	_, startStr := localTimes(d.StartTime)
	_, deadlineStr := localTimes(deadline)
	return fmt.Sprintf("Olá, %s! Seu horário de %s no %s era às %s e ainda não registramos sua chegada. Você está a caminho? Avise o salão até %s, senão o horário será liberado.",
		name, d.ServiceName, d.SalonName, startStr, deadlineStr)
}

// feedSummary renders the one-line body of a dashboard feed entry.
func feedSummary(d *apptrepo.NotificationDetails) string {
	name := defaultName(d.ClientName, "Cliente")
	dateStr, timeStr := localTimes(d.StartTime)
	return fmt.Sprintf("%s: %s com %s em %s às %s", name, d.ServiceName, d.ProfessionalName, dateStr, timeStr)
}

// escalationFeedSummary tells the reception what to do about a late client.
func escalationFeedSummary(d *apptrepo.NotificationDetails, deadline time.Time) string {
	name := defaultName(d.ClientName, "Cliente")
	_, startStr := localTimes(d.StartTime)
	_, deadlineStr := localTimes(deadline)
	return fmt.Sprintf("%s não chegou para o horário das %s. Sem retorno até %s, o horário será liberado.",
		name, startStr, deadlineStr)
}

func defaultName(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
