package service

import (
	"strings"

	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/domain"
)

// FlowService resuelve la siguiente pregunta y valida identidad y orden de respuestas.
type FlowService struct {
	catalog *catalog.Catalog
}

func NewFlowService(cat *catalog.Catalog) *FlowService {
	return &FlowService{catalog: cat}
}

func (s *FlowService) Catalog() *catalog.Catalog { return s.catalog }

func (s *FlowService) TotalSteps() int { return len(s.catalog.Questions()) }

// GetQuestion devuelve la pregunta localizada o QUESTION_NOT_FOUND.
func (s *FlowService) GetQuestion(questionID, lang string) (domain.LocalizedQuestion, error) {
	q, ok := s.catalog.Question(strings.TrimSpace(questionID))
	if !ok {
		return domain.LocalizedQuestion{}, domain.Errorf(domain.KindQuestionNotFound, "question %q not found", questionID)
	}
	return s.catalog.Localize(q, lang), nil
}

// NextQuestionID devuelve la pregunta de menor orden aun sin responder.
func (s *FlowService) NextQuestionID(answers []domain.Answer) (string, bool) {
	answered := answeredSet(answers)
	for _, q := range s.catalog.Questions() {
		if !answered[q.ID] {
			return q.ID, true
		}
	}
	return "", false
}

// IsComplete indica si todas las preguntas del catalogo tienen respuesta.
func (s *FlowService) IsComplete(answers []domain.Answer) bool {
	_, pending := s.NextQuestionID(answers)
	return !pending
}

// NextQuestion devuelve la siguiente pregunta localizada o la señal de finalizacion.
func (s *FlowService) NextQuestion(answers []domain.Answer, lang string) domain.FlowStep {
	step := domain.FlowStep{Progress: s.Progress(answers)}
	id, ok := s.NextQuestionID(answers)
	if !ok {
		step.Completed = true
		return step
	}
	q, _ := s.catalog.Question(id)
	lq := s.catalog.Localize(q, lang)
	step.Question = &lq
	return step
}

// Progress cuenta solo respuestas a preguntas del catalogo.
func (s *FlowService) Progress(answers []domain.Answer) domain.Progress {
	total := s.TotalSteps()
	done := 0
	for id := range answeredSet(answers) {
		if _, ok := s.catalog.Question(id); ok {
			done++
		}
	}
	current := done + 1
	if current > total {
		current = total
	}
	percentage := 0
	if total > 0 {
		percentage = done * 100 / total
	}
	return domain.Progress{CurrentStep: current, TotalSteps: total, Percentage: percentage}
}

// ValidateAnswer comprueba identidad, duplicado y orden antes de registrar.
func (s *FlowService) ValidateAnswer(answers []domain.Answer, questionID, optionID string) error {
	if err := s.ValidateIdentity(questionID, optionID); err != nil {
		return err
	}
	if answeredSet(answers)[questionID] {
		return domain.Errorf(domain.KindAlreadyAnswered, "question %q already answered", questionID)
	}
	next, ok := s.NextQuestionID(answers)
	if !ok || next != questionID {
		return domain.Errorf(domain.KindInvalidRequest, "question %q is out of order, expected %q", questionID, next)
	}
	return nil
}

// ValidateIdentity comprueba que la pregunta y la opcion existan en el catalogo.
func (s *FlowService) ValidateIdentity(questionID, optionID string) error {
	if questionID == "" || optionID == "" {
		return domain.NewError(domain.KindInvalidRequest, "question_id and option_id are required")
	}
	q, ok := s.catalog.Question(questionID)
	if !ok {
		return domain.Errorf(domain.KindQuestionNotFound, "question %q not found", questionID)
	}
	if _, ok := q.OptionByID(optionID); !ok {
		return domain.Errorf(domain.KindInvalidRequest, "option %q is not valid for question %q", optionID, questionID)
	}
	return nil
}

func answeredSet(answers []domain.Answer) map[string]bool {
	set := make(map[string]bool, len(answers))
	for _, a := range answers {
		set[a.QuestionID] = true
	}
	return set
}
