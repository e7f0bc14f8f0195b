package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TwilioSender texts OTPs through the Twilio Messages REST API
type TwilioSender struct {
	client     *resty.Client
	accountSID string
	from       string
}

func NewTwilioSender(baseURL, accountSID, authToken, from string) *TwilioSender {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(accountSID, authToken).
		SetHeader("Accept", "application/json").
		SetTimeout(10 * time.Second)
	return &TwilioSender{client: client, accountSID: accountSID, from: from}
}

func (s *TwilioSender) SendOTP(ctx context.Context, phone string, otp int) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   phone,
			"From": s.from,
			"Body": fmt.Sprintf("Your OTP is %d", otp),
		}).
		Post("/2010-04-01/Accounts/" + s.accountSID + "/Messages.json")
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
