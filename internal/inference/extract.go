package inference

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Shape is the structural class of a decoded provider payload.
type Shape int

const (
	ShapeOther Shape = iota
	ShapeObjectList
	ShapeStringList
	ShapeObject
)

// ShapeOf inspects the top level of payload. Lists are classified by their
// first element only.
func ShapeOf(payload gjson.Result) Shape {
	switch {
	case payload.IsArray():
		items := payload.Array()
		if len(items) == 0 {
			return ShapeOther
		}
		switch {
		case items[0].IsObject():
			return ShapeObjectList
		case items[0].Type == gjson.String:
			return ShapeStringList
		}
	case payload.IsObject():
		return ShapeObject
	}
	return ShapeOther
}

// Extract pulls the candidate answer out of payload and strips any echo of
// question. ok is false when nothing usable remains.
func Extract(payload gjson.Result, question string) (string, bool) {
	var text string
	switch ShapeOf(payload) {
	case ShapeObjectList:
		text = textField(payload.Array()[0])
	case ShapeStringList:
		text = payload.Array()[0].Str
	case ShapeObject:
		text = textField(payload)
	default:
		return "", false
	}

	text = StripEcho(text, question)
	if text == "" {
		return "", false
	}
	return text, true
}

// StripEcho removes every exact occurrence of question from text and trims
// the result.
func StripEcho(text, question string) string {
	if question != "" && strings.Contains(text, question) {
		text = strings.ReplaceAll(text, question, "")
	}
	return strings.TrimSpace(text)
}

// textField prefers generated_text over text. A present generated_text that
// is not a string hides text.
func textField(obj gjson.Result) string {
	if v := obj.Get("generated_text"); v.Exists() {
		if v.Type == gjson.String {
			return v.Str
		}
		return ""
	}
	if v := obj.Get("text"); v.Type == gjson.String {
		return v.Str
	}
	return ""
}
