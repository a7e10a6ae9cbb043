package email

const (
	subjectWelcomeFmt           = "Bem-vindo ao Aluvi Agendamentos, %s"
	subjectAppointmentBooked    = "Seu horário está reservado"
	subjectAppointmentConfirmed = "Seu agendamento foi confirmado"
	subjectAppointmentCancelled = "Seu agendamento foi cancelado"
	subjectEscalationAlertFmt   = "Cliente em atraso: %s"
)
