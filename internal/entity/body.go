package entity

import (
	"encoding/json"
	"fmt"
)

type BodyType string

const (
	BodyText BodyType = "text"
	BodyJSON BodyType = "json"
	BodyForm BodyType = "form"
)

// Body is the tagged request payload variant.
type Body struct {
	Type BodyType
	Text *TextBody
	JSON *JSONBody
	Form *FormBody
}

type TextBody struct {
	Content   string `json:"content"`
	MediaType string `json:"media_type,omitempty"`
}

type JSONBody struct {
	Content string `json:"content"`
}

type FormBody struct {
	Fields map[string]string `json:"fields"`
}

func (b Body) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case BodyText:
		if b.Text == nil {
			return nil, fmt.Errorf("body type %q has no payload", b.Type)
		}
		return json.Marshal(struct {
			Content   string   `json:"content"`
			MediaType string   `json:"media_type,omitempty"`
			Type      BodyType `json:"type"`
		}{b.Text.Content, b.Text.MediaType, b.Type})
	case BodyJSON:
		if b.JSON == nil {
			return nil, fmt.Errorf("body type %q has no payload", b.Type)
		}
		return json.Marshal(struct {
			Content string   `json:"content"`
			Type    BodyType `json:"type"`
		}{b.JSON.Content, b.Type})
	case BodyForm:
		if b.Form == nil {
			return nil, fmt.Errorf("body type %q has no payload", b.Type)
		}
		return json.Marshal(struct {
			Fields map[string]string `json:"fields"`
			Type   BodyType          `json:"type"`
		}{b.Form.Fields, b.Type})
	default:
		return nil, fmt.Errorf("unknown body type %q", b.Type)
	}
}

func (b *Body) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type BodyType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	*b = Body{Type: probe.Type}
	switch probe.Type {
	case BodyText:
		var payload TextBody
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		b.Text = &payload
	case BodyJSON:
		var payload JSONBody
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		b.JSON = &payload
	case BodyForm:
		var payload FormBody
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		b.Form = &payload
	default:
		return fmt.Errorf("unknown body type %q", probe.Type)
	}
	return nil
}
