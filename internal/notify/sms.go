package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const mobizonSendURL = "https://api.mobizon.kz/service/message/sendsmsmessage"

type mobizonResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

// SMSNotifier texts alerts through the Mobizon HTTP API.
type SMSNotifier struct {
	apiKey     string
	sender     string
	recipients []string
	dryRun     bool
	endpoint   string
	client     *http.Client
	log        *zap.SugaredLogger
}

func NewSMSNotifier(apiKey, sender string, recipients []string, dryRun bool, log *zap.SugaredLogger) *SMSNotifier {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &SMSNotifier{
		apiKey:     apiKey,
		sender:     sender,
		recipients: recipients,
		dryRun:     dryRun || apiKey == "" || apiKey == "dry-run",
		endpoint:   mobizonSendURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Notify sends subject and body as one text to each recipient.
func (s *SMSNotifier) Notify(ctx context.Context, subject, body string) error {
	if s == nil || len(s.recipients) == 0 {
		return nil
	}
	text := subject
	if body != "" {
		text += ": " + body
	}

	var errs []error
	for _, to := range s.recipients {
		if err := s.send(ctx, to, text); err != nil {
			errs = append(errs, fmt.Errorf("sms to %s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

func (s *SMSNotifier) send(ctx context.Context, to, text string) error {
	if s.dryRun {
		s.log.Infow("[notify][sms] dry-run", "to", to, "sender", s.sender, "text", text)
		return nil
	}

	form := url.Values{
		"apiKey":    {s.apiKey},
		"recipient": {to},
		"text":      {text},
	}
	if s.sender != "" {
		form.Set("from", s.sender)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var result mobizonResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	if result.Code != 0 {
		return fmt.Errorf("mobizon returned code %d: %s", result.Code, result.Message)
	}
	s.log.Debugw("[notify][sms] sent", "to", to, "message_id", result.Data.MessageID)
	return nil
}
