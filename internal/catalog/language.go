package catalog

import (
	"strings"

	"golang.org/x/text/language"

	"kanji-quiz/internal/domain"
)

// canonical normaliza un tag BCP 47; si no parsea se usa en minusculas.
func canonical(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	return parsed.String()
}

// candidates devuelve los tags a probar: exacto y luego idioma base.
func candidates(requested string) []string {
	tag := canonical(requested)
	if tag == "" {
		return nil
	}
	out := []string{tag}
	if parsed, err := language.Parse(tag); err == nil {
		if base, conf := parsed.Base(); conf != language.No && base.String() != tag {
			out = append(out, base.String())
		}
	}
	return out
}

// ResolveLanguage elige el idioma del catalogo para una peticion.
// fellBack es true cuando se pidio un idioma no soportado.
func (c *Catalog) ResolveLanguage(requested string) (lang string, fellBack bool) {
	tags := candidates(requested)
	for _, tag := range tags {
		if c.languages[tag] {
			return tag, false
		}
	}
	return c.doc.DefaultLanguage, len(tags) > 0
}

// Text resuelve un texto localizado con la misma politica de fallback.
func (c *Catalog) Text(text domain.LocalizedText, requested string) (string, string, bool) {
	tags := candidates(requested)
	for _, tag := range tags {
		if s, ok := lookup(text, tag); ok {
			return s, tag, false
		}
	}
	s, _ := lookup(text, c.doc.DefaultLanguage)
	return s, c.doc.DefaultLanguage, len(tags) > 0
}

func lookup(text domain.LocalizedText, tag string) (string, bool) {
	if s, ok := text[tag]; ok && s != "" {
		return s, true
	}
	for k, s := range text {
		if s != "" && canonical(k) == tag {
			return s, true
		}
	}
	return "", false
}

// Localize resuelve una pregunta y sus opciones para un idioma.
func (c *Catalog) Localize(q domain.Question, requested string) domain.LocalizedQuestion {
	text, used, fellBack := c.Text(q.Text, requested)
	out := domain.LocalizedQuestion{
		ID:       q.ID,
		Order:    q.Order,
		Kind:     q.Kind,
		Text:     text,
		Options:  make([]domain.LocalizedOption, 0, len(q.Options)),
		Language: used,
		FellBack: fellBack,
	}
	for _, opt := range q.Options {
		optText, _, optFellBack := c.Text(opt.Text, used)
		if optFellBack {
			out.FellBack = true
		}
		out.Options = append(out.Options, domain.LocalizedOption{ID: opt.ID, Text: optText})
	}
	return out
}

// LocalizeResult resuelve significado y explicacion de un Result.
func (c *Catalog) LocalizeResult(r domain.Result, requested string) domain.LocalizedResult {
	meaning, used, fellBack := c.Text(r.Meaning, requested)
	explanation, _, explFellBack := c.Text(r.Explanation, used)
	return domain.LocalizedResult{
		SessionID:   r.SessionID,
		Subtype:     r.Subtype,
		Labels:      r.Labels,
		Traits:      r.Traits,
		Kanji:       r.Kanji,
		Reading:     r.Reading,
		Meaning:     meaning,
		Explanation: explanation,
		Language:    used,
		FellBack:    fellBack || explFellBack,
		GeneratedAt: r.GeneratedAt,
	}
}
