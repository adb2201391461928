package model

import (
	"strings"

	"intranet-backend/internal/shared/utils"
)

// EntityKind identifies one taxonomy family kept in both systems.
type EntityKind string

const (
	KindBrand      EntityKind = "brand"
	KindImprint    EntityKind = "imprint"
	KindCollection EntityKind = "collection"
	KindBookType   EntityKind = "book-type"
	KindTag        EntityKind = "tag"
	KindCoupon     EntityKind = "coupon"
)

// DerivedShape tells which WooCommerce resource mirrors a kind.
type DerivedShape string

const (
	// ShapeAttributeTerm mirrors the record as a term of a product attribute.
	ShapeAttributeTerm DerivedShape = "attribute-term"
	// ShapeCoupon mirrors the record as a standalone coupon.
	ShapeCoupon DerivedShape = "coupon"
)

// Route segments used by the admin UI, mapped onto kinds.
var kindAliases = map[string]EntityKind{
	"brand":           KindBrand,
	"brands":          KindBrand,
	"marca":           KindBrand,
	"marcas":          KindBrand,
	"imprint":         KindImprint,
	"imprints":        KindImprint,
	"sello":           KindImprint,
	"sellos":          KindImprint,
	"collection":      KindCollection,
	"collections":     KindCollection,
	"coleccion":       KindCollection,
	"colecciones":     KindCollection,
	"serie-coleccion": KindCollection,
	"book-type":       KindBookType,
	"book-types":      KindBookType,
	"tipo-libro":      KindBookType,
	"tipos-libro":     KindBookType,
	"tag":             KindTag,
	"tags":            KindTag,
	"etiqueta":        KindTag,
	"etiquetas":       KindTag,
	"coupon":          KindCoupon,
	"coupons":         KindCoupon,
	"cupon":           KindCoupon,
	"cupones":         KindCoupon,
}

// ParseKind resolves a route segment such as "serie-coleccion" or "Tipo Libro".
func ParseKind(raw string) (EntityKind, error) {
	key := utils.GenerateSlug(strings.ReplaceAll(raw, "_", "-"))
	if kind, ok := kindAliases[key]; ok {
		return kind, nil
	}
	return "", NewInvalidKind(raw)
}

// Kinds returns every supported kind in registry order.
func Kinds() []EntityKind {
	return []EntityKind{KindBrand, KindImprint, KindCollection, KindBookType, KindTag, KindCoupon}
}
