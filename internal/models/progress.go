package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ProgressRecord is a per-profile, per-challenge completion entry
type ProgressRecord struct {
	ID             int64      `json:"id_progreso,omitempty"`
	ProfileID      int64      `json:"id_perfil"`
	ChallengeID    int64      `json:"id_reto"`
	Completed      bool       `json:"completado"`
	CompletedAt    *Timestamp `json:"fecha_completado"`
	SelectedAnswer *string    `json:"respuesta_seleccionada"`
}

// Timestamp accepts the datetime layouts the backend emits (with or without zone)
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
