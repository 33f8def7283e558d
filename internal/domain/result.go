package domain

import "time"

// TraitVector mapea dimension a puntaje acumulado.
type TraitVector map[string]float64

// Slice devuelve los puntajes en el orden de dimensiones dado.
func (v TraitVector) Slice(dimensions []string) []float32 {
	out := make([]float32, len(dimensions))
	for i, dim := range dimensions {
		out[i] = float32(v[dim])
	}
	return out
}

// Merge suma otro vector sobre este.
func (v TraitVector) Merge(other TraitVector) {
	for dim, score := range other {
		v[dim] += score
	}
}

// Labels mapea clasificador a etiqueta categorica.
type Labels map[string]string

type KanjiCandidate struct {
	ID          string        `yaml:"id" json:"id"`
	Subtype     string        `yaml:"subtype" json:"subtype"`
	Match       Labels        `yaml:"match" json:"match,omitempty"`
	Kanji       string        `yaml:"kanji" json:"kanji"`
	Reading     string        `yaml:"reading" json:"reading"`
	Meaning     LocalizedText `yaml:"meaning" json:"meaning"`
	Explanation LocalizedText `yaml:"explanation" json:"explanation"`
}

// Result es inmutable una vez persistido.
type Result struct {
	SessionID      string        `json:"session_id"`
	CandidateID    string        `json:"candidate_id"`
	Subtype        string        `json:"subtype"`
	Labels         Labels        `json:"labels"`
	Traits         TraitVector   `json:"traits"`
	Kanji          string        `json:"kanji"`
	Reading        string        `json:"reading"`
	Meaning        LocalizedText `json:"meaning"`
	Explanation    LocalizedText `json:"explanation"`
	CatalogVersion string        `json:"catalog_version"`
	GeneratedAt    time.Time     `json:"generated_at"`
}

// LocalizedResult es un Result con textos resueltos para un idioma.
type LocalizedResult struct {
	SessionID   string      `json:"session_id"`
	Subtype     string      `json:"subtype"`
	Labels      Labels      `json:"labels"`
	Traits      TraitVector `json:"traits"`
	Kanji       string      `json:"kanji"`
	Reading     string      `json:"reading"`
	Meaning     string      `json:"meaning"`
	Explanation string      `json:"explanation"`
	Language    string      `json:"language"`
	FellBack    bool        `json:"fell_back"`
	GeneratedAt time.Time   `json:"generated_at"`
}
