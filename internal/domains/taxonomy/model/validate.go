package model

import (
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// Coupon discount types accepted by WooCommerce.
const (
	DiscountPercent      = "percent"
	DiscountFixedCart    = "fixed_cart"
	DiscountFixedProduct = "fixed_product"
)

// ValidateCreate checks required fields in declaration order and stops at
// the first missing one, so the message names exactly one field.
func ValidateCreate(desc *EntityKindDescriptor, fields Fields) error {
	for _, spec := range desc.Fields {
		if !spec.Required {
			continue
		}
		if err := requiredField(fields, spec); err != nil {
			return err
		}
	}
	if desc.Kind == KindCoupon {
		return validateCoupon(fields, false)
	}
	return nil
}

// ValidateUpdate only checks fields that are present. A required field may
// not be cleared.
func ValidateUpdate(desc *EntityKindDescriptor, fields Fields) error {
	if len(fields) == 0 {
		return NewValidationError("No se enviaron campos para actualizar", nil)
	}
	for _, spec := range desc.Fields {
		if !spec.Required || !fields.Has(spec.Name) {
			continue
		}
		if err := requiredField(fields, spec); err != nil {
			return err
		}
	}
	if desc.Kind == KindCoupon {
		return validateCoupon(fields, true)
	}
	return nil
}

func requiredField(fields Fields, spec FieldSpec) error {
	err := validation.Validate(fields.String(spec.Name), validation.Required.Error(spec.RequiredMessage))
	if err != nil {
		return toValidationError(validation.Errors{spec.Name: err})
	}
	return nil
}

func validateCoupon(fields Fields, partial bool) error {
	code := fields.String(FieldCode)
	platform := fields.String(FieldOriginPlatform)
	discountType := fields.String(FieldDiscountType)

	rules := validation.Errors{}
	if !partial || fields.Has(FieldCode) {
		rules[FieldCode] = validation.Validate(code,
			validation.Length(3, 50).Error("El código del cupón debe tener entre 3 y 50 caracteres"),
		)
	}
	if !partial || fields.Has(FieldOriginPlatform) {
		rules[FieldOriginPlatform] = validation.Validate(platform,
			validation.In(stringsToAny(OriginPlatforms)...).Error("La plataforma de origen debe ser woo_moraleja, woo_escolar u otro"),
		)
	}
	if discountType != "" {
		rules[FieldDiscountType] = validation.Validate(discountType,
			validation.In(DiscountPercent, DiscountFixedCart, DiscountFixedProduct).Error("Tipo de cupón no válido"),
		)
	}

	amount, ok, err := fields.Decimal(FieldAmount)
	switch {
	case err != nil:
		rules[FieldAmount] = validation.NewError("validation_amount_invalid", "El monto del cupón debe ser numérico")
	case ok && !amount.GreaterThan(decimal.Zero):
		rules[FieldAmount] = validation.NewError("validation_amount_positive", "El monto del cupón debe ser mayor que cero")
	case ok && discountType == DiscountPercent && amount.GreaterThan(decimal.NewFromInt(100)):
		rules[FieldAmount] = validation.NewError("validation_amount_percent", "El porcentaje de descuento no puede superar 100")
	}

	if err := rules.Filter(); err != nil {
		return toValidationError(err)
	}
	return nil
}

// toValidationError flattens ozzo errors into a single message plus details.
func toValidationError(err error) error {
	errs, ok := err.(validation.Errors)
	if !ok {
		return NewValidationError(err.Error(), nil)
	}
	details := make(map[string]any, len(errs))
	messages := make([]string, 0, len(errs))
	for _, field := range sortedKeys(errs) {
		msg := errs[field].Error()
		details[field] = msg
		messages = append(messages, msg)
	}
	return NewValidationError(strings.Join(messages, "; "), details)
}

// sortedKeys puts coupon fields in form order, then any other field by name.
func sortedKeys(errs validation.Errors) []string {
	order := []string{FieldCode, FieldOriginPlatform, FieldDiscountType, FieldAmount}
	keys := make([]string, 0, len(errs))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		seen[k] = true
		if _, ok := errs[k]; ok {
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(errs))
	for k := range errs {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
