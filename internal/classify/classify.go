// Package classify tags raw model responses as structured JSON or opaque text
// and extracts derived fields from structured payloads.
package classify

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind discriminates the two response payload shapes.
type Kind string

const (
	KindStructured Kind = "structured"
	KindOpaque     Kind = "opaque"
)

// Classified is the tagged result of inspecting a raw response payload.
// Raw always holds the original payload text; Value is the parsed JSON
// tree and is set only when Kind is KindStructured.
type Classified struct {
	Kind  Kind
	Value any
	Raw   string
}

// Well-known lookup paths in Generative Language API responses.
const (
	textPath         = "candidates.0.content.parts.0.text"
	errorMessagePath = "error.message"
	usagePath        = "usageMetadata"
)

// Classify parses raw as a JSON document. Any well-formed document, whatever
// its shape, is tagged structured; everything else is tagged opaque. Malformed
// input is never an error, only an opaque payload.
func Classify(raw []byte) Classified {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return Classified{Kind: KindOpaque, Raw: string(raw)}
	}
	return Classified{Kind: KindStructured, Value: value, Raw: string(raw)}
}

// ExtractText returns the generated answer text from a structured response
// document, or "" when any segment of the candidate path is absent, null, or
// not a string. A missing path is normal, not an error.
func ExtractText(doc string) string {
	result := gjson.Get(doc, textPath)
	if result.Type != gjson.String {
		return ""
	}
	return result.String()
}

// Usage holds the optional token counts reported under usageMetadata.
// Absent counts stay nil rather than defaulting to zero; a zero would
// read as "zero tokens billed", which is not what absence means.
type Usage struct {
	PromptTokens   *int64 `json:"promptTokens,omitempty"`
	ResponseTokens *int64 `json:"responseTokens,omitempty"`
	TotalTokens    *int64 `json:"totalTokens,omitempty"`
}

// ExtractUsage returns whichever token counts the structured response
// document carries under its usage metadata.
func ExtractUsage(doc string) Usage {
	var usage Usage
	meta := gjson.Get(doc, usagePath)
	if !meta.IsObject() {
		return usage
	}
	usage.PromptTokens = intField(meta, "promptTokenCount")
	usage.ResponseTokens = intField(meta, "candidatesTokenCount")
	usage.TotalTokens = intField(meta, "totalTokenCount")
	return usage
}

func intField(obj gjson.Result, key string) *int64 {
	field := obj.Get(key)
	if field.Type != gjson.Number {
		return nil
	}
	v := field.Int()
	return &v
}

// ErrorMessage returns the upstream API error message carried by a structured
// error payload, or "" when the document carries no error field.
func ErrorMessage(doc string) string {
	errField := gjson.Get(doc, "error")
	if !errField.Exists() {
		return ""
	}
	if msg := gjson.Get(doc, errorMessagePath); msg.Type == gjson.String && msg.String() != "" {
		return msg.String()
	}
	return strings.TrimSpace(errField.String())
}

// IsError reports whether a structured response document represents an
// upstream API error rather than a generation result.
func IsError(doc string) bool {
	return gjson.Get(doc, "error").Exists()
}
