package model

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// TaxonomyRecord is a classification value owned by Strapi.
type TaxonomyRecord struct {
	Kind        EntityKind `json:"kind"`
	InternalID  int64      `json:"id"`
	LinkingKey  string     `json:"documentId"`
	DisplayName string     `json:"displayName"`
	Description *string    `json:"description,omitempty"`
	Fields      Fields     `json:"fields"`
}

// DerivedTerm is the WooCommerce counterpart of a record: an attribute
// term, or a coupon when Code is set.
type DerivedTerm struct {
	DerivedID   int64  `json:"id"`
	Slug        string `json:"slug,omitempty"`
	Name        string `json:"name,omitempty"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

// AttributeDescriptor is a WooCommerce product attribute a kind maps to.
type AttributeDescriptor struct {
	AttributeID    int64      `json:"id"`
	Slug           string     `json:"slug"`
	Name           string     `json:"name"`
	EntityKind     EntityKind `json:"entityKind,omitempty"`
	SlugCandidates []string   `json:"slugCandidates,omitempty"`
}

// TermInput is the create payload for an attribute term.
type TermInput struct {
	Name        string
	Slug        string
	Description string
}

// CouponInput is the create payload for a WooCommerce coupon.
type CouponInput struct {
	Code         string
	DiscountType string
	Amount       decimal.Decimal
	Description  string
}

// RecordFromUpstream builds a record from a Strapi item. Both flat (v5) and
// {id, attributes} (v4) items are accepted.
func RecordFromUpstream(desc *EntityKindDescriptor, item map[string]any) *TaxonomyRecord {
	flat := FlattenItem(item)
	fields := NormalizeFields(desc, flat)
	rec := &TaxonomyRecord{
		Kind:        desc.Kind,
		InternalID:  ItemInt(flat, "id"),
		LinkingKey:  ItemString(flat, "documentId"),
		DisplayName: fields.String(desc.NameField),
		Fields:      fields,
	}
	// v4 items have no documentId; the numeric id is their only key.
	if rec.LinkingKey == "" && rec.InternalID > 0 {
		rec.LinkingKey = strconv.FormatInt(rec.InternalID, 10)
	}
	if desc.DescriptionField != "" {
		rec.Description = fields.StringPtr(desc.DescriptionField)
	}
	return rec
}

// FlattenItem merges a v4 "attributes" object into the top level.
// Top-level keys win.
func FlattenItem(item map[string]any) map[string]any {
	attrs, ok := item["attributes"].(map[string]any)
	if !ok {
		return item
	}
	flat := make(map[string]any, len(item)+len(attrs))
	for k, v := range attrs {
		flat[k] = v
	}
	for k, v := range item {
		if k != "attributes" {
			flat[k] = v
		}
	}
	return flat
}

// ItemString reads a string-ish value from a decoded JSON object.
func ItemString(item map[string]any, key string) string {
	switch v := item[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// ItemInt reads an integer value from a decoded JSON object.
func ItemInt(item map[string]any, key string) int64 {
	switch v := item[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
