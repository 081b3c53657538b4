package model

import "encoding/json"

// Config is the per-type question configuration, a tagged union keyed by
// the question's type. Types without a variant carry a nil Config; config
// left over from a previous question type is dropped on decode.
type Config interface {
	isConfig()
}

type SliderConfig struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

type RatingConfig struct {
	MaxStars int `json:"max_stars"`
}

type MatrixConfig struct {
	Rows []string `json:"rows"`
}

func (SliderConfig) isConfig() {}
func (RatingConfig) isConfig() {}
func (MatrixConfig) isConfig() {}

// DecodeConfig parses a raw config object for the given question type.
func DecodeConfig(t QuestionType, raw json.RawMessage) (Config, error) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "{}" {
		return nil, nil
	}
	switch t {
	case TypeSlider:
		var c SliderConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TypeRating:
		var c RatingConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	case TypeMatrix:
		var c MatrixConfig
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, nil
}

// EncodeConfig renders a config back to its wire object, "{}" when absent.
func EncodeConfig(c Config) ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// questionJSON is the wire shadow of Question: config crosses as a raw
// object so it can be decoded against the question type.
type questionJSON struct {
	ID       int             `json:"id,omitempty"`
	TempID   string          `json:"temp_id,omitempty"`
	Text     string          `json:"text"`
	HelpText string          `json:"help_text,omitempty"`
	Type     QuestionType    `json:"question_type"`
	Required bool            `json:"is_required"`
	Order    int             `json:"order"`
	Options  []Option        `json:"options,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
	Logic    *Condition      `json:"logic_rule,omitempty"`
}

func (q Question) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	if q.Config != nil {
		enc, err := json.Marshal(q.Config)
		if err != nil {
			return nil, err
		}
		raw = enc
	}
	return json.Marshal(questionJSON{
		ID:       q.ID,
		TempID:   q.TempID,
		Text:     q.Text,
		HelpText: q.HelpText,
		Type:     q.Type,
		Required: q.Required,
		Order:    q.Order,
		Options:  q.Options,
		Config:   raw,
		Logic:    q.Logic,
	})
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var wire questionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	cfg, err := DecodeConfig(wire.Type, wire.Config)
	if err != nil {
		return err
	}
	*q = Question{
		ID:       wire.ID,
		TempID:   wire.TempID,
		Text:     wire.Text,
		HelpText: wire.HelpText,
		Type:     wire.Type,
		Required: wire.Required,
		Order:    wire.Order,
		Options:  wire.Options,
		Config:   cfg,
		Logic:    wire.Logic,
	}
	return nil
}
