package domain

import "time"

// SessionState es el estado derivado de una sesion.
type SessionState string

const (
	SessionStarted   SessionState = "STARTED"
	SessionComplete  SessionState = "COMPLETE"
	SessionGenerated SessionState = "GENERATED"
)

type Session struct {
	ID         string    `json:"id"`
	Language   string    `json:"language"`
	UserName   string    `json:"user_name,omitempty"`
	ClientHash string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Answer struct {
	SessionID  string    `json:"session_id"`
	QuestionID string    `json:"question_id"`
	OptionID   string    `json:"option_id"`
	AnsweredAt time.Time `json:"answered_at"`
}

// SessionSummary agrega la sesion con sus respuestas y el estado derivado.
type SessionSummary struct {
	Session  Session      `json:"session"`
	Answers  []Answer     `json:"answers"`
	Answered int          `json:"answered"`
	Total    int          `json:"total"`
	Complete bool         `json:"complete"`
	State    SessionState `json:"state"`
	Result   *Result      `json:"result,omitempty"`
	NextStep *FlowStep    `json:"next,omitempty"`
}

// StateOf deriva el estado a partir de la completitud y el resultado.
func StateOf(complete bool, result *Result) SessionState {
	switch {
	case result != nil:
		return SessionGenerated
	case complete:
		return SessionComplete
	default:
		return SessionStarted
	}
}
