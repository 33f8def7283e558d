package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ResultMessage es el contenido de un correo con el nombre generado.
type ResultMessage struct {
	To          string
	UserName    string
	Kanji       string
	Reading     string
	Meaning     string
	Explanation string
	Language    string
}

// Sender define la interfaz para envio del resultado por correo.
type Sender interface {
	SendResult(ctx context.Context, msg ResultMessage) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendResult(_ context.Context, _ ResultMessage) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

// Render arma asunto y cuerpo en el idioma del mensaje (ja o en).
func Render(msg ResultMessage) (subject, body string) {
	name := strings.TrimSpace(msg.UserName)
	if strings.HasPrefix(msg.Language, "ja") {
		if name == "" {
			name = "お客"
		}
		subject = "あなたの漢字名: " + msg.Kanji
		body = fmt.Sprintf(
			"%s様\n\nあなたの漢字名は「%s」(%s) です。\n意味: %s\n\n%s\n",
			name, msg.Kanji, msg.Reading, msg.Meaning, msg.Explanation,
		)
		return subject, body
	}
	if name == "" {
		name = "there"
	}
	subject = "Your kanji name: " + msg.Kanji
	body = fmt.Sprintf(
		"Hi %s,\n\nYour kanji name is %s (%s).\nMeaning: %s\n\n%s\n",
		name, msg.Kanji, msg.Reading, msg.Meaning, msg.Explanation,
	)
	return subject, body
}
