package feed

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindBool
	KindNode
	KindList
)

// Value is a feed field in whatever shape the publisher emitted: a plain
// scalar, an attribute-bearing element, or a collection of either.
type Value struct {
	Kind     Kind
	Str      string
	Num      float64
	Bool     bool
	Attrs    map[string]string
	Children map[string][]Value
	List     []Value
}

func Null() Value { return Value{} }

func Text(s string) Value { return Value{Kind: KindText, Str: s} }

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func Node(text string, attrs map[string]string, children map[string][]Value) Value {
	return Value{Kind: KindNode, Str: text, Attrs: attrs, Children: children}
}

func List(values ...Value) Value {
	return Value{Kind: KindList, List: values}
}

// textOrNull maps empty parser output to KindNull so absent fields stay absent.
func textOrNull(s string) Value {
	if s == "" {
		return Null()
	}
	return Text(s)
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Text flattens a text field into a plain string. Nodes yield their text
// content, then the #text, term or url attributes, and as a last resort
// their JSON form. Lists yield their first element.
func (v Value) Text() string {
	switch v.Kind {
	case KindText:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		if len(v.List) == 0 {
			return ""
		}
		return v.List[0].Text()
	case KindNode:
		if s, ok := v.nodeText(); ok {
			return s
		}
		return v.marshal()
	}
	return ""
}

// Label is Text for category labels: a node without any textual form
// yields "" so the caller drops it.
func (v Value) Label() string {
	switch v.Kind {
	case KindText:
		return strings.TrimSpace(v.Str)
	case KindNumber, KindBool:
		return v.Text()
	case KindList:
		if len(v.List) == 0 {
			return ""
		}
		return v.List[0].Label()
	case KindNode:
		s, _ := v.nodeText()
		return strings.TrimSpace(s)
	}
	return ""
}

// Labels flattens a category collection, dropping entries without a label.
func (v Value) Labels() []string {
	var values []Value
	if v.Kind == KindList {
		values = v.List
	} else if !v.IsNull() {
		values = []Value{v}
	}

	labels := make([]string, 0, len(values))
	for _, value := range values {
		if label := value.Label(); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// Nodes returns the node collection view of the value. Plain text is
// treated as a node whose url is the text itself.
func (v Value) Nodes() []Value {
	switch v.Kind {
	case KindNode:
		return []Value{v}
	case KindText:
		if strings.TrimSpace(v.Str) == "" {
			return nil
		}
		return []Value{Node("", map[string]string{"url": v.Str}, nil)}
	case KindList:
		var nodes []Value
		for _, item := range v.List {
			nodes = append(nodes, item.Nodes()...)
		}
		return nodes
	}
	return nil
}

func (v Value) Attr(name string) string {
	switch v.Kind {
	case KindNode:
		return v.Attrs[name]
	case KindList:
		if len(v.List) > 0 {
			return v.List[0].Attr(name)
		}
	}
	return ""
}

func (v Value) nodeText() (string, bool) {
	if v.Str != "" {
		return v.Str, true
	}
	for _, key := range []string{"#text", "term", "url"} {
		if s := v.Attrs[key]; s != "" {
			return s, true
		}
	}
	return "", false
}

func (v Value) marshal() string {
	data, err := json.Marshal(v.plain())
	if err != nil {
		return ""
	}
	return string(data)
}

func (v Value) plain() any {
	switch v.Kind {
	case KindText:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]any, 0, len(v.List))
		for _, item := range v.List {
			out = append(out, item.plain())
		}
		return out
	case KindNode:
		out := make(map[string]any)
		if len(v.Attrs) > 0 {
			out["$"] = v.Attrs
		}
		for name, children := range v.Children {
			values := make([]any, 0, len(children))
			for _, child := range children {
				values = append(values, child.plain())
			}
			out[name] = values
		}
		return out
	}
	return nil
}
