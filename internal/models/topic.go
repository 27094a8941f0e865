package models

// Topic is a top-level learning unit ("tema")
type Topic struct {
	ID          int64  `json:"id_tema,omitempty"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
	Image       string `json:"img_tema,omitempty"`
	Information string `json:"informacion_tema,omitempty"`

	// Position is the unlock order. It is assigned when a list is decoded
	// and never sent over the wire.
	Position int `json:"-"`
}

// Tip is a short informational note with no gating
type Tip struct {
	ID          int64  `json:"id_tip,omitempty"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}
