package domain

// LocalizedText mapea codigo de idioma a texto.
type LocalizedText map[string]string

type Option struct {
	ID      string             `yaml:"id" json:"id"`
	Text    LocalizedText      `yaml:"text" json:"text"`
	Weights map[string]float64 `yaml:"weights" json:"weights"`
}

type Question struct {
	ID      string        `yaml:"id" json:"id"`
	Order   int           `yaml:"order" json:"order"`
	Kind    string        `yaml:"kind" json:"kind"`
	Text    LocalizedText `yaml:"text" json:"text"`
	Options []Option      `yaml:"options" json:"options"`
}

// OptionByID busca una opcion de la pregunta.
func (q Question) OptionByID(id string) (Option, bool) {
	for _, opt := range q.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

type LocalizedOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// LocalizedQuestion es una pregunta resuelta para un idioma.
type LocalizedQuestion struct {
	ID       string            `json:"id"`
	Order    int               `json:"order"`
	Kind     string            `json:"kind"`
	Text     string            `json:"text"`
	Options  []LocalizedOption `json:"options"`
	Language string            `json:"language"`
	FellBack bool              `json:"fell_back"`
}

type Progress struct {
	CurrentStep int `json:"current_step"`
	TotalSteps  int `json:"total_steps"`
	Percentage  int `json:"percentage"`
}

// FlowStep es la siguiente pregunta o la señal de finalizacion.
type FlowStep struct {
	Completed bool               `json:"completed"`
	Question  *LocalizedQuestion `json:"question,omitempty"`
	Progress  Progress           `json:"progress"`
}
