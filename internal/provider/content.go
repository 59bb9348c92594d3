// internal/provider/content.go
package provider

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Content is the assistant message body. Vendors return it as a plain string,
// an array of parts or a single part object; exactly one variant applies to a
// given JSON value.
type Content interface {
	// Text returns the trimmed text, or "" when the variant carries none.
	Text() string
}

type TextContent struct{ Value string }

type PartsContent struct{ Parts []ContentPart }

type SinglePartContent struct{ Part ContentPart }

// ContentPart is one element of a multi-part message. Some models use
// "output_text" in place of "text".
type ContentPart struct {
	Type       string
	Text       string
	OutputText string
}

func (p ContentPart) value() string {
	if s := strings.TrimSpace(p.Text); s != "" {
		return s
	}
	return strings.TrimSpace(p.OutputText)
}

func (c TextContent) Text() string { return strings.TrimSpace(c.Value) }

func (c PartsContent) Text() string {
	var texts []string
	for _, p := range c.Parts {
		if s := p.value(); s != "" {
			texts = append(texts, s)
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

func (c SinglePartContent) Text() string { return c.Part.value() }

// ParseContent classifies a JSON value as string, parts array or single part.
// It returns nil for any other JSON type.
func ParseContent(v gjson.Result) Content {
	switch {
	case v.Type == gjson.String:
		return TextContent{Value: v.Str}
	case v.IsArray():
		var parts []ContentPart
		v.ForEach(func(_, item gjson.Result) bool {
			if item.IsObject() {
				parts = append(parts, parsePart(item))
			}
			return true
		})
		return PartsContent{Parts: parts}
	case v.IsObject():
		return SinglePartContent{Part: parsePart(v)}
	}
	return nil
}

func parsePart(v gjson.Result) ContentPart {
	return ContentPart{
		Type:       stringAt(v, "type"),
		Text:       stringAt(v, "text"),
		OutputText: stringAt(v, "output_text"),
	}
}

func stringAt(v gjson.Result, path string) string {
	r := v.Get(path)
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

// contentText extracts the text at path from a response body.
func contentText(body []byte, path string) string {
	c := ParseContent(gjson.GetBytes(body, path))
	if c == nil {
		return ""
	}
	return c.Text()
}
