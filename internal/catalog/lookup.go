package catalog

import (
	"fmt"

	"kanji-quiz/internal/domain"
)

// ResolveSubtype aplica la tabla de subtipos; gana la primera fila que coincide.
func (c *Catalog) ResolveSubtype(labels domain.Labels) (string, bool) {
	for _, rule := range c.doc.Subtypes.Table {
		if ruleMatches(rule, c.doc.Subtypes.Key, labels) {
			return rule.Subtype, true
		}
	}
	return "", false
}

func ruleMatches(rule SubtypeRule, key []string, labels domain.Labels) bool {
	for _, classifier := range key {
		want, ok := rule.When[classifier]
		if !ok || want == Wildcard {
			continue
		}
		if labels[classifier] != want {
			return false
		}
	}
	return true
}

// MatchCandidate busca el candidato de un subtipo cuyas etiquetas de match
// coinciden. Gana el mas especifico; a igualdad, el primero del catalogo.
func (c *Catalog) MatchCandidate(subtype string, labels domain.Labels) (domain.KanjiCandidate, bool) {
	best := -1
	bestSpecificity := -1
	for i, cand := range c.doc.Candidates {
		if cand.Subtype != subtype || !candidateMatches(cand, labels) {
			continue
		}
		if len(cand.Match) > bestSpecificity {
			best = i
			bestSpecificity = len(cand.Match)
		}
	}
	if best < 0 {
		return domain.KanjiCandidate{}, false
	}
	return c.doc.Candidates[best], true
}

func candidateMatches(cand domain.KanjiCandidate, labels domain.Labels) bool {
	for classifier, want := range cand.Match {
		if labels[classifier] != want {
			return false
		}
	}
	return true
}

// Labels enumera las etiquetas que puede producir un clasificador.
func (c *Catalog) Labels(classifier string) []string {
	cl, ok := c.Classifier(classifier)
	if !ok {
		return nil
	}
	switch cl.Kind {
	case ClassifierArgmax:
		return append([]string(nil), cl.Dimensions...)
	case ClassifierThreshold:
		seen := make(map[string]bool)
		var out []string
		add := func(bands []Band) {
			for _, b := range bands {
				if !seen[b.Label] {
					seen[b.Label] = true
					out = append(out, b.Label)
				}
			}
		}
		add(cl.Bands)
		if cl.SelectBy != "" {
			for _, selector := range c.Labels(cl.SelectBy) {
				add(cl.BandsBy[selector])
			}
		}
		return out
	default:
		return nil
	}
}

// Subtypes devuelve los subtipos declarados en la tabla, sin repetir.
func (c *Catalog) Subtypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rule := range c.doc.Subtypes.Table {
		if !seen[rule.Subtype] {
			seen[rule.Subtype] = true
			out = append(out, rule.Subtype)
		}
	}
	return out
}

// combinations genera todas las asignaciones de etiquetas para los clasificadores dados.
func (c *Catalog) combinations(classifiers []string) []domain.Labels {
	combos := []domain.Labels{{}}
	for _, name := range classifiers {
		labels := c.Labels(name)
		next := make([]domain.Labels, 0, len(combos)*len(labels))
		for _, combo := range combos {
			for _, label := range labels {
				extended := make(domain.Labels, len(combo)+1)
				for k, v := range combo {
					extended[k] = v
				}
				extended[name] = label
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

func describe(keys []string, labels domain.Labels) string {
	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%s", k, labels[k])
	}
	return out
}
