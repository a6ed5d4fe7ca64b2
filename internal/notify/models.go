package notify

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const (
	TypeFranchiseApproved    = "franchise_approved"
	TypeFranchiseRejected    = "franchise_rejected"
	TypeApplicationReceived  = "application_received"
	TypeApplicationApproved  = "application_approved"
	TypeApplicationRejected  = "application_rejected"
	TypeAppointmentConfirmed = "appointment_confirmed"
)

const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
}

// Message addresses one recipient. Empty Email or Phone skips that channel.
type Message struct {
	Type  string
	Email string
	Phone string
	Data  map[string]interface{}
}

type Result struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"`
}

// Template holds the rendered texts and which channels a type uses.
type Template struct {
	Subject string
	Body    string
	SMSBody string
	Email   bool
	SMS     bool
}

func defaultTemplates() map[string]Template {
	return map[string]Template{
		TypeFranchiseApproved: {
			Subject: "Sua franquia {{franchiseName}} foi aprovada",
			Body:    "Olá {{ownerName}}, a franquia {{franchiseName}} foi aprovada e já está ativa na rede.",
			Email:   true,
		},
		TypeFranchiseRejected: {
			Subject: "Atualização sobre a franquia {{franchiseName}}",
			Body:    "Olá {{ownerName}}, o cadastro da franquia {{franchiseName}} não foi aprovado neste momento.",
			Email:   true,
		},
		TypeApplicationReceived: {
			Subject: "Recebemos sua candidatura",
			Body:    "Olá {{applicantName}}, recebemos sua candidatura para {{city}}/{{state}}. Em breve entraremos em contato.",
			Email:   true,
		},
		TypeApplicationApproved: {
			Subject: "Candidatura aprovada",
			Body:    "Olá {{applicantName}}, sua candidatura foi aprovada. {{reviewNotes}}",
			Email:   true,
		},
		TypeApplicationRejected: {
			Subject: "Resultado da sua candidatura",
			Body:    "Olá {{applicantName}}, sua candidatura não foi aprovada neste momento. {{reviewNotes}}",
			Email:   true,
		},
		TypeAppointmentConfirmed: {
			Subject: "Consulta confirmada",
			Body:    "Olá {{userName}}, sua consulta de {{serviceType}} está confirmada para {{scheduledAt}}.",
			SMSBody: "Consulta confirmada: {{serviceType}} em {{scheduledAt}}.",
			Email:   true,
			SMS:     true,
		},
	}
}

func senderIDAttributes(senderID string) map[string]snstypes.MessageAttributeValue {
	return map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SenderID": {
			DataType:    aws.String("String"),
			StringValue: aws.String(senderID),
		},
	}
}
