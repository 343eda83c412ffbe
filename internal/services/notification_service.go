package services

import (
	"log"

	"fuel_dispatch/pkg/sms"
)

// Notifier delivers messages out of band. Delivery is best effort; a
// failure is logged, never propagated to the triggering request.
type Notifier interface {
	SendOTP(phone, code string)
	SendMessage(phone, message string)
}

type notificationService struct {
	client *sms.Client // nil when no gateway is configured
}

// NewNotificationService wraps the SMS gateway client. With a nil client
// messages are logged instead of sent, which is the development mode and
// the documented OTP delivery stub.
func NewNotificationService(client *sms.Client) Notifier {
	return &notificationService{client: client}
}

func (s *notificationService) SendOTP(phone, code string) {
	s.SendMessage(phone, "Your verification code is "+code)
}

func (s *notificationService) SendMessage(phone, message string) {
	if s.client == nil {
		log.Printf("[SMS stub] to %s: %s", phone, message)
		return
	}
	if err := s.client.Send(phone, message); err != nil {
		log.Printf("failed to send SMS to %s: %v", phone, err)
	}
}
