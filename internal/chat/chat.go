// Package chat models the OpenWebUI filter payload. Only the fields this service
// reads or writes are typed; everything else round-trips untouched.
package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifies the author of a message.
type Role string

const (
	User      Role = "user"
	Assistant Role = "assistant"
	System    Role = "system"
)

// Body is the filter payload exchanged with the host on inlet and outlet.
type Body struct {
	Messages []Message
	Metadata map[string]any

	extra fields
}

func (b *Body) UnmarshalJSON(data []byte) error {
	extra, err := split(data)
	if err != nil {
		return fmt.Errorf("body: %w", err)
	}
	if err := extra.take("messages", &b.Messages); err != nil {
		return fmt.Errorf("body messages: %w", err)
	}
	if err := extra.take("metadata", &b.Metadata); err != nil {
		return fmt.Errorf("body metadata: %w", err)
	}
	b.extra = extra
	return nil
}

func (b Body) MarshalJSON() ([]byte, error) {
	out := b.extra.clone()
	if err := out.put("messages", b.Messages); err != nil {
		return nil, err
	}
	if b.Metadata != nil {
		if err := out.put("metadata", b.Metadata); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// LastIndex returns the index of the last message with role, or -1.
func (b *Body) LastIndex(role Role) int {
	for i := len(b.Messages) - 1; i >= 0; i-- {
		if b.Messages[i].Role == role {
			return i
		}
	}
	return -1
}

// SetMeta stores v under key in the body metadata.
func (b *Body) SetMeta(key string, v any) {
	if b.Metadata == nil {
		b.Metadata = make(map[string]any)
	}
	b.Metadata[key] = v
}

// Message is one chat turn. Files holds the host's attachment objects.
type Message struct {
	Role    Role
	Content Content
	Files   []json.RawMessage

	extra fields
}

func (m *Message) UnmarshalJSON(data []byte) error {
	extra, err := split(data)
	if err != nil {
		return fmt.Errorf("message: %w", err)
	}
	if err := extra.take("role", &m.Role); err != nil {
		return fmt.Errorf("message role: %w", err)
	}
	if err := extra.take("content", &m.Content); err != nil {
		return fmt.Errorf("message content: %w", err)
	}
	if err := extra.take("files", &m.Files); err != nil {
		return fmt.Errorf("message files: %w", err)
	}
	m.extra = extra
	return nil
}

func (m Message) MarshalJSON() ([]byte, error) {
	out := m.extra.clone()
	if err := out.put("role", m.Role); err != nil {
		return nil, err
	}
	if err := out.put("content", m.Content); err != nil {
		return nil, err
	}
	if m.Files != nil {
		if err := out.put("files", m.Files); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// AttachFile appends a host file object to the message.
func (m *Message) AttachFile(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode file: %w", err)
	}
	m.Files = append(m.Files, raw)
	return nil
}

// Content is either a plain string or a list of typed parts.
type Content struct {
	text    string
	parts   []Part
	isParts bool
}

// Text creates string content.
func Text(s string) Content {
	return Content{text: s}
}

// Parts creates list content.
func Parts(parts ...Part) Content {
	return Content{parts: parts, isParts: true}
}

func (c Content) IsParts() bool {
	return c.isParts
}

func (c Content) Parts() []Part {
	return c.parts
}

// String returns the text of the content. Text parts are joined by newlines.
func (c Content) String() string {
	if !c.isParts {
		return c.text
	}
	var texts []string
	for _, p := range c.parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Images returns the URLs of image parts in order.
func (c Content) Images() []string {
	var urls []string
	for _, p := range c.parts {
		if p.Type == PartImage && p.ImageURL != nil && p.ImageURL.URL != "" {
			urls = append(urls, p.ImageURL.URL)
		}
	}
	return urls
}

// Append adds text to the content, keeping its shape: string content is
// concatenated and list content gains a text part.
func (c *Content) Append(text string) {
	if c.isParts {
		c.parts = append(c.parts, Part{Type: PartText, Text: text})
		return
	}
	c.text += text
}

// Contains reports whether text already appears in the content.
func (c Content) Contains(text string) bool {
	return strings.Contains(c.String(), text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*c = Content{}
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
		return nil
	case strings.HasPrefix(trimmed, "["):
		var parts []Part
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = Parts(parts...)
		return nil
	default:
		return fmt.Errorf("content must be a string or a list of parts")
	}
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.isParts {
		if c.parts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(c.parts)
	}
	return json.Marshal(c.text)
}

// Part types understood by the filter.
const (
	PartText  = "text"
	PartImage = "image_url"
)

// Part is one element of list content.
type Part struct {
	Type     string
	Text     string
	ImageURL *ImageURL

	extra fields
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

func (p *Part) UnmarshalJSON(data []byte) error {
	extra, err := split(data)
	if err != nil {
		return fmt.Errorf("part: %w", err)
	}
	if err := extra.take("type", &p.Type); err != nil {
		return err
	}
	if err := extra.take("text", &p.Text); err != nil {
		return err
	}
	if err := extra.take("image_url", &p.ImageURL); err != nil {
		return err
	}
	p.extra = extra
	return nil
}

func (p Part) MarshalJSON() ([]byte, error) {
	out := p.extra.clone()
	if err := out.put("type", p.Type); err != nil {
		return nil, err
	}
	if p.Type == PartText || p.Text != "" {
		if err := out.put("text", p.Text); err != nil {
			return nil, err
		}
	}
	if p.ImageURL != nil {
		if err := out.put("image_url", p.ImageURL); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}
