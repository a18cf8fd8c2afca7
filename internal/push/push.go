// Package push sends APNs notifications as a best-effort hint channel.
// A failed send never propagates an error to the caller's primary flow;
// clients recover through their polling loop.
package push

import (
	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/certificate"
	"github.com/sideshow/apns2/payload"
)

// Service wraps an APNs client. A zero-value Service (or one created
// with Disabled) drops every send.
type Service struct {
	client *apns2.Client
	topic  string
}

// Config holds APNs settings.
type Config struct {
	CertPath string
	CertPass string
	Topic    string
	Sandbox  bool
}

// New creates a push service from a PKCS#12 certificate file.
func New(cfg Config) (*Service, error) {
	cert, err := certificate.FromP12File(cfg.CertPath, cfg.CertPass)
	if err != nil {
		return nil, err
	}

	client := apns2.NewClient(cert)
	if cfg.Sandbox {
		client = client.Development()
	} else {
		client = client.Production()
	}

	return &Service{client: client, topic: cfg.Topic}, nil
}

// Disabled returns a service that silently drops every notification.
func Disabled() *Service {
	return &Service{}
}

// Send delivers a notification to a device token. It returns whether the
// notification was accepted; failures are logged and swallowed.
func (s *Service) Send(deviceToken, title, body string) bool {
	if s == nil || s.client == nil || deviceToken == "" {
		return false
	}

	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload: payload.NewPayload().
			AlertTitle(title).
			AlertBody(body).
			Sound("default"),
	}

	res, err := s.client.Push(notification)
	if err != nil {
		log.Warn().Err(err).Msg("Push send failed")
		return false
	}
	if !res.Sent() {
		log.Warn().
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("Push rejected by APNs")
		return false
	}
	return true
}
