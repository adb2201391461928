package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Fields holds record values keyed by canonical field name.
// A key present with a nil value means "clear this field upstream";
// an absent key means "leave it alone".
type Fields map[string]any

// Has reports whether the field was provided, even as null.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// String returns the trimmed string form of a scalar field.
func (f Fields) String(name string) string {
	v, ok := f[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case decimal.Decimal:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// StringPtr returns nil for absent, null or blank values.
func (f Fields) StringPtr(name string) *string {
	s := f.String(name)
	if s == "" {
		return nil
	}
	return &s
}

// Decimal parses a numeric field. ok is false when the field is absent or null.
func (f Fields) Decimal(name string) (d decimal.Decimal, ok bool, err error) {
	v, present := f[name]
	if !present || v == nil {
		return decimal.Zero, false, nil
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true, nil
	case decimal.Decimal:
		return t, true, nil
	}
	s := f.String(name)
	if s == "" {
		return decimal.Zero, false, nil
	}
	d, err = decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, true, fmt.Errorf("%s: %w", name, err)
	}
	return d, true, nil
}

// Int64 parses an integer id field; zero when absent or invalid.
func (f Fields) Int64(name string) int64 {
	n, err := strconv.ParseInt(f.String(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// NormalizeFields maps raw input keys (canonical, current upstream or any
// legacy alias) onto canonical names. The first matching spelling wins and
// unknown keys are dropped.
func NormalizeFields(desc *EntityKindDescriptor, raw map[string]any) Fields {
	out := make(Fields, len(desc.Fields))
	for _, spec := range desc.Fields {
		for _, key := range spellings(spec) {
			if v, ok := raw[key]; ok {
				out[spec.Name] = v
				break
			}
		}
	}
	return out
}

func spellings(spec FieldSpec) []string {
	keys := make([]string, 0, len(spec.Aliases)+2)
	keys = append(keys, spec.Name, spec.Upstream)
	return append(keys, spec.Aliases...)
}

// ToUpstream converts canonical fields to the Strapi payload for desc.
func ToUpstream(desc *EntityKindDescriptor, fields Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for _, spec := range desc.Fields {
		v, ok := fields[spec.Name]
		if !ok {
			continue
		}
		out[spec.Upstream] = upstreamValue(desc, spec, v)
	}
	return out
}

func upstreamValue(desc *EntityKindDescriptor, spec FieldSpec, v any) any {
	if v == nil {
		return nil
	}
	if spec.Relation {
		return relationKeys(v)
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if desc.Kind == KindCoupon && spec.Name == FieldCode {
			s = strings.ToUpper(s)
		}
		return s
	case decimal.Decimal:
		return t.String()
	}
	return v
}

// relationKeys accepts a single key or a list and always returns a list.
func relationKeys(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
		return []string{}
	case []string:
		return t
	case []any:
		keys := make([]string, 0, len(t))
		for _, item := range t {
			switch k := item.(type) {
			case string:
				keys = append(keys, k)
			case float64:
				keys = append(keys, strconv.FormatFloat(k, 'f', -1, 64))
			case map[string]any:
				if doc, ok := k["documentId"].(string); ok {
					keys = append(keys, doc)
				}
			}
		}
		return keys
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}
	}
	return []string{fmt.Sprint(v)}
}
