package scoring

import (
	"time"

	"kanji-quiz/internal/catalog"
	"kanji-quiz/internal/domain"
)

// Outcome es el resultado puro del scoring, antes de ligarse a una sesion.
type Outcome struct {
	Traits    domain.TraitVector
	Labels    domain.Labels
	Subtype   string
	Candidate domain.KanjiCandidate
}

// Engine orquesta calculadores, subtipo y seleccion de candidato.
type Engine struct {
	catalog     *catalog.Catalog
	calculators []Calculator
	subtypes    *SubtypeCalculator
}

func NewEngine(cat *catalog.Catalog) *Engine {
	return &Engine{
		catalog:     cat,
		calculators: NewCalculators(cat),
		subtypes:    NewSubtypeCalculator(cat),
	}
}

func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// CheckComplete exige exactamente una respuesta valida por pregunta del catalogo.
func (e *Engine) CheckComplete(answers []domain.Answer) error {
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		q, ok := e.catalog.Question(a.QuestionID)
		if !ok {
			return domain.Errorf(domain.KindInvalidRequest, "unknown question %q", a.QuestionID)
		}
		if _, ok := q.OptionByID(a.OptionID); !ok {
			return domain.Errorf(domain.KindInvalidRequest, "unknown option %q for question %q", a.OptionID, a.QuestionID)
		}
		if seen[a.QuestionID] {
			return domain.Errorf(domain.KindInvalidRequest, "question %q answered twice", a.QuestionID)
		}
		seen[a.QuestionID] = true
	}
	total := len(e.catalog.Questions())
	if len(seen) < total {
		return domain.Errorf(domain.KindInsufficientAnswers, "%d of %d questions answered", len(seen), total)
	}
	return nil
}

// Traits suma todos los calculadores. El orden de las respuestas no importa.
func (e *Engine) Traits(answers []domain.Answer) domain.TraitVector {
	out := make(domain.TraitVector)
	for _, calc := range e.calculators {
		out.Merge(calc.Calculate(answers))
	}
	return out
}

// Score calcula rasgos, subtipo y candidato. Sin efectos secundarios.
func (e *Engine) Score(answers []domain.Answer) (Outcome, error) {
	if err := e.CheckComplete(answers); err != nil {
		return Outcome{}, err
	}
	traits := e.Traits(answers)
	subtype, labels, err := e.subtypes.Resolve(traits)
	if err != nil {
		return Outcome{}, err
	}
	cand, ok := e.catalog.MatchCandidate(subtype, labels)
	if !ok {
		return Outcome{}, domain.Errorf(domain.KindCatalogInconsistent, "no candidate for subtype %q with labels %v", subtype, labels)
	}
	return Outcome{
		Traits:    traits,
		Labels:    labels,
		Subtype:   subtype,
		Candidate: cand,
	}, nil
}

// Result liga un Outcome a una sesion.
func (e *Engine) Result(sessionID string, outcome Outcome, generatedAt time.Time) domain.Result {
	return domain.Result{
		SessionID:      sessionID,
		CandidateID:    outcome.Candidate.ID,
		Subtype:        outcome.Subtype,
		Labels:         outcome.Labels,
		Traits:         outcome.Traits,
		Kanji:          outcome.Candidate.Kanji,
		Reading:        outcome.Candidate.Reading,
		Meaning:        outcome.Candidate.Meaning,
		Explanation:    outcome.Candidate.Explanation,
		CatalogVersion: e.catalog.Version(),
		GeneratedAt:    generatedAt.UTC().Truncate(time.Millisecond),
	}
}
