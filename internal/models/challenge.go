package models

// Challenge is a single question inside a topic ("reto")
type Challenge struct {
	ID            int64  `json:"id_reto,omitempty"`
	TopicID       int64  `json:"id_tema"`
	Name          string `json:"nombre_reto"`
	Description   string `json:"descripcion"`
	Theory        string `json:"teoria,omitempty"`
	Question      string `json:"pregunta"`
	AnswerOne     string `json:"respuesta_uno"`
	AnswerTwo     string `json:"respuesta_dos"`
	AnswerThree   string `json:"respuesta_tres,omitempty"`
	AnswerFour    string `json:"respuesta_cuatro,omitempty"`
	CorrectAnswer string `json:"respuesta_correcta,omitempty"`
	Cost          int    `json:"costo_monedas"`
	Reward        int    `json:"recompensa_monedas"`
	Image         string `json:"img_reto,omitempty"`

	// Position is the order inside the owning topic, assigned on decode.
	Position int `json:"-"`
}

// Options returns the non-empty answer options in display order
func (c *Challenge) Options() []string {
	var out []string
	for _, o := range []string{c.AnswerOne, c.AnswerTwo, c.AnswerThree, c.AnswerFour} {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsFree reports whether starting the challenge costs nothing
func (c *Challenge) IsFree() bool {
	return c.Cost == 0
}

// SolveRequest is the body of POST /solucionar_reto/
type SolveRequest struct {
	ProfileID      int64  `json:"id_perfil"`
	ChallengeID    int64  `json:"id_reto"`
	SelectedAnswer string `json:"respuesta_seleccionada"`
}

// SolveResult is the backend verdict for an answer
type SolveResult struct {
	Completed bool `json:"completado"`
}
