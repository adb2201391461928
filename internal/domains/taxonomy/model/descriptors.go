package model

// ============================================================
// ENTITY KIND REGISTRY
// ============================================================
// One descriptor per kind replaces the per-route copies of the same
// create/lookup/rollback sequence. Field names on the Strapi side drifted
// between content-type versions, so every field lists the names it has
// been seen under; the first entry in Aliases is the oldest spelling.

// FieldMappingVersion is bumped whenever an upstream attribute name changes.
const FieldMappingVersion = 3

// Canonical field names shared by several kinds.
const (
	FieldName           = "name"
	FieldDescription    = "description"
	FieldCode           = "code"
	FieldWooCommerceID  = "woocommerceId"
	FieldOriginPlatform = "originPlatform"
	FieldDiscountType   = "discountType"
	FieldAmount         = "amount"
)

// Origin platforms accepted on coupons.
const (
	PlatformMoraleja = "woo_moraleja"
	PlatformEscolar  = "woo_escolar"
	PlatformOther    = "otro"
)

// OriginPlatforms lists the valid originPlatform values.
var OriginPlatforms = []string{PlatformMoraleja, PlatformEscolar, PlatformOther}

// FieldSpec maps one canonical field onto its Strapi attribute.
type FieldSpec struct {
	Name     string   // canonical name used inside the service
	Upstream string   // current Strapi attribute name
	Aliases  []string // older names still accepted on input and read back
	Relation bool     // value is one or more record keys

	Required        bool
	RequiredMessage string
}

// EntityKindDescriptor parameterizes the reconciliation for one kind.
type EntityKindDescriptor struct {
	Kind  EntityKind
	Label string // Spanish noun phrase with article, used in messages

	// Strapi side
	Collection       string
	Fields           []FieldSpec
	NameField        string
	DescriptionField string
	LinkBackField    string // empty when the content type has no slot for the WooCommerce id

	// WooCommerce side
	Shape          DerivedShape
	AttributeSlugs []string // tried in order, exact match
	AttributeNames []string // substrings of the attribute display name
}

// Field returns the spec for a canonical field name.
func (d *EntityKindDescriptor) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// PrimaryAttributeSlug is the slug shown in configuration errors.
func (d *EntityKindDescriptor) PrimaryAttributeSlug() string {
	if len(d.AttributeSlugs) == 0 {
		return string(d.Kind)
	}
	return d.AttributeSlugs[0]
}

func linkBackField() FieldSpec {
	return FieldSpec{Name: FieldWooCommerceID, Upstream: "woocommerce_id", Aliases: []string{"woo_id", "id_woocommerce"}}
}

var registry = map[EntityKind]*EntityKindDescriptor{
	KindBrand: {
		Kind:       KindBrand,
		Label:      "de la marca",
		Collection: "marcas",
		Fields: []FieldSpec{
			{Name: FieldName, Upstream: "nombre_marca", Aliases: []string{"name_marca", "nombre", "name"},
				Required: true, RequiredMessage: "El nombre de la marca es obligatorio"},
			{Name: FieldDescription, Upstream: "descripcion", Aliases: []string{"description"}},
			{Name: "parent", Upstream: "marca_padre", Aliases: []string{"parent", "marcaPadre"}, Relation: true},
			{Name: "children", Upstream: "marcas_hijas", Aliases: []string{"children", "marcasHijas"}, Relation: true},
			linkBackField(),
		},
		NameField:        FieldName,
		DescriptionField: FieldDescription,
		LinkBackField:    FieldWooCommerceID,
		Shape:            ShapeAttributeTerm,
		AttributeSlugs:   []string{"pa_marca", "marca", "pa_brand"},
		AttributeNames:   []string{"marca", "brand"},
	},
	KindImprint: {
		Kind:       KindImprint,
		Label:      "del sello",
		Collection: "sellos",
		Fields: []FieldSpec{
			{Name: FieldName, Upstream: "nombre_sello", Aliases: []string{"name_sello", "nombre", "name"},
				Required: true, RequiredMessage: "El nombre del sello es obligatorio"},
			{Name: "acronym", Upstream: "acronimo", Aliases: []string{"acronym", "sigla"}},
			{Name: FieldDescription, Upstream: "descripcion", Aliases: []string{"description"}},
			{Name: "collections", Upstream: "colecciones", Aliases: []string{"collections", "series"}, Relation: true},
			linkBackField(),
		},
		NameField:        FieldName,
		DescriptionField: FieldDescription,
		LinkBackField:    FieldWooCommerceID,
		Shape:            ShapeAttributeTerm,
		AttributeSlugs:   []string{"pa_sello", "sello", "pa_imprint"},
		AttributeNames:   []string{"sello", "imprint"},
	},
	KindCollection: {
		Kind:       KindCollection,
		Label:      "de la serie o colección",
		Collection: "colecciones",
		Fields: []FieldSpec{
			{Name: FieldName, Upstream: "nombre_coleccion", Aliases: []string{"nombre_serie", "nombre", "name"},
				Required: true, RequiredMessage: "El nombre de la serie o colección es obligatorio"},
			{Name: FieldDescription, Upstream: "descripcion", Aliases: []string{"description"}},
			{Name: "imprint", Upstream: "sello", Aliases: []string{"imprint", "id_sello"}, Relation: true},
			linkBackField(),
		},
		NameField:        FieldName,
		DescriptionField: FieldDescription,
		LinkBackField:    FieldWooCommerceID,
		Shape:            ShapeAttributeTerm,
		AttributeSlugs:   []string{"pa_serie_coleccion", "serie_coleccion", "pa_coleccion", "pa_serie"},
		AttributeNames:   []string{"serie", "colección", "collection"},
	},
	KindBookType: {
		Kind:       KindBookType,
		Label:      "del tipo de libro",
		Collection: "tipo-libros",
		Fields: []FieldSpec{
			{Name: FieldCode, Upstream: "codigo_tipo_libro", Aliases: []string{"codigo", "code"},
				Required: true, RequiredMessage: "El código del tipo de libro es obligatorio"},
			{Name: FieldName, Upstream: "nombre_tipo_libro", Aliases: []string{"nombre", "name"},
				Required: true, RequiredMessage: "El nombre del tipo de libro es obligatorio"},
			{Name: FieldDescription, Upstream: "descripcion", Aliases: []string{"description"}},
		},
		NameField:        FieldName,
		DescriptionField: FieldDescription,
		Shape:            ShapeAttributeTerm,
		AttributeSlugs:   []string{"pa_tipo_libro", "tipo_libro", "pa_tipo-de-libro"},
		AttributeNames:   []string{"tipo de libro", "tipo libro", "book type"},
	},
	KindTag: {
		Kind:       KindTag,
		Label:      "de la etiqueta",
		Collection: "etiquetas",
		Fields: []FieldSpec{
			{Name: FieldName, Upstream: "name", Aliases: []string{"nombre", "nombre_etiqueta"},
				Required: true, RequiredMessage: "El nombre de la etiqueta es obligatorio"},
			{Name: FieldDescription, Upstream: "descripcion", Aliases: []string{"description"}},
		},
		NameField:        FieldName,
		DescriptionField: FieldDescription,
		Shape:            ShapeAttributeTerm,
		AttributeSlugs:   []string{"pa_etiqueta", "etiqueta", "pa_etiquetas"},
		AttributeNames:   []string{"etiqueta", "tag"},
	},
	KindCoupon: {
		Kind:       KindCoupon,
		Label:      "del cupón",
		Collection: "cupones",
		Fields: []FieldSpec{
			{Name: FieldCode, Upstream: "codigo_cupon", Aliases: []string{"codigo", "code"},
				Required: true, RequiredMessage: "El código del cupón es obligatorio"},
			{Name: FieldOriginPlatform, Upstream: "plataforma_origen", Aliases: []string{"plataforma", "origin_platform", "originPlatform"},
				Required: true, RequiredMessage: "La plataforma de origen del cupón es obligatoria"},
			{Name: FieldDiscountType, Upstream: "tipo_cupon", Aliases: []string{"discount_type", "discountType"}},
			{Name: FieldAmount, Upstream: "monto", Aliases: []string{"amount", "valor"}},
			{Name: FieldDescription, Upstream: "descripcion", Aliases: []string{"description"}},
			linkBackField(),
		},
		NameField:        FieldCode,
		DescriptionField: FieldDescription,
		LinkBackField:    FieldWooCommerceID,
		Shape:            ShapeCoupon,
	},
}

// Lookup returns the descriptor for a kind.
func Lookup(kind EntityKind) (*EntityKindDescriptor, error) {
	desc, ok := registry[kind]
	if !ok {
		return nil, NewInvalidKind(string(kind))
	}
	return desc, nil
}

// Descriptors returns all descriptors in registry order.
func Descriptors() []*EntityKindDescriptor {
	out := make([]*EntityKindDescriptor, 0, len(registry))
	for _, kind := range Kinds() {
		out = append(out, registry[kind])
	}
	return out
}
