package email

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestRenderUsesMessageLanguage(t *testing.T) {
	msg := ResultMessage{
		UserName:    "Aiko",
		Kanji:       "穏和",
		Reading:     "Onwa",
		Meaning:     "calm harmony",
		Explanation: "for someone who brings peace",
		Language:    "en",
	}
	subject, body := Render(msg)
	if subject != "Your kanji name: 穏和" {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "Hi Aiko,") || !strings.Contains(body, "穏和 (Onwa)") {
		t.Fatalf("unexpected body %q", body)
	}

	msg.Language = "ja"
	msg.UserName = ""
	subject, body = Render(msg)
	if !strings.HasPrefix(subject, "あなたの漢字名") {
		t.Fatalf("expected japanese subject, got %q", subject)
	}
	if !strings.HasPrefix(body, "お客様") {
		t.Fatalf("expected default japanese salutation, got %q", body)
	}
}

func TestBuildMessageEncodesHeaders(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := buildMessage("noreply@example.com", "漢字屋", "to@example.com", "Your kanji name: 穏和", "穏やかな和", at)
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Fatalf("expected encoded subject, got %q", msg)
	}
	if !strings.Contains(msg, "<noreply@example.com>") {
		t.Fatalf("expected from address, got %q", msg)
	}
	if !strings.Contains(msg, "Date: Sat, 01 Jun 2024 12:00:00 +0000") {
		t.Fatalf("expected date header, got %q", msg)
	}

	_, rawBody, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatalf("expected blank line between headers and body")
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(rawBody, "\r\n", ""))
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if string(decoded) != "穏やかな和" {
		t.Fatalf("unexpected body %q", decoded)
	}
}

func TestBuildMessageWrapsLongBodies(t *testing.T) {
	body := strings.Repeat("漢字", 60)
	msg := buildMessage("a@example.com", "", "b@example.com", "s", body, time.Now())
	_, rawBody, _ := strings.Cut(msg, "\r\n\r\n")
	for _, line := range strings.Split(rawBody, "\r\n") {
		if len(line) > 76 {
			t.Fatalf("body line longer than 76 chars: %d", len(line))
		}
	}
}

func TestDisabledSender(t *testing.T) {
	err := NewDisabledSender("smtp not configured").SendResult(context.Background(), ResultMessage{To: "a@b.c"})
	if err == nil || err.Error() != "smtp not configured" {
		t.Fatalf("expected configured reason, got %v", err)
	}
}

func TestNewSMTPSenderValidates(t *testing.T) {
	if _, err := NewSMTPSender(SMTPConfig{Port: 25, From: "from@example.com"}); err == nil {
		t.Fatalf("expected error for missing host")
	}
	if _, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"}); err == nil {
		t.Fatalf("expected error for missing from")
	}
	s, err := NewSMTPSender(SMTPConfig{Host: " smtp.example.com ", From: "from@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.cfg.Port != 587 || s.cfg.Host != "smtp.example.com" {
		t.Fatalf("unexpected config %+v", s.cfg)
	}
}

func TestSMTPSenderRequiresRecipient(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "from@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SendResult(context.Background(), ResultMessage{}); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
}

func TestSMTPSenderReportsDialFailure(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "from@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.dial = func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	err = s.SendResult(context.Background(), ResultMessage{To: "to@example.com", Kanji: "穏和"})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected dial error, got %v", err)
	}
}
