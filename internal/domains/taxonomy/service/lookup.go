package service

import (
	"context"
	"fmt"
	"strings"

	"intranet-backend/internal/domains/taxonomy"
	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/shared/utils"
)

// TermLookup resolves the WooCommerce attribute a kind maps to.
// It holds no state and is safe for concurrent use.
type TermLookup struct {
	source taxonomy.AttributeSource
}

func NewTermLookup(source taxonomy.AttributeSource) *TermLookup {
	return &TermLookup{source: source}
}

// Resolve returns the attribute for desc, or (nil, nil) when none matches.
// Preference order: a single result of the slug-filtered query, then exact
// slug equality in the full listing, then an accent-insensitive name
// substring match.
func (l *TermLookup) Resolve(ctx context.Context, desc *model.EntityKindDescriptor) (*model.AttributeDescriptor, error) {
	if len(desc.AttributeSlugs) > 0 {
		filtered, err := l.source.AttributesBySlug(ctx, desc.AttributeSlugs[0])
		if err != nil {
			return nil, fmt.Errorf("lookup attribute %q: %w", desc.AttributeSlugs[0], err)
		}
		if len(filtered) == 1 {
			return l.describe(desc, filtered[0]), nil
		}
	}

	all, err := l.source.ListAttributes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}

	for _, candidate := range desc.AttributeSlugs {
		for _, attr := range all {
			if attr.Slug == candidate {
				return l.describe(desc, attr), nil
			}
		}
	}

	for _, needle := range desc.AttributeNames {
		folded := utils.FoldName(needle)
		if folded == "" {
			continue
		}
		for _, attr := range all {
			if strings.Contains(utils.FoldName(attr.Name), folded) {
				return l.describe(desc, attr), nil
			}
		}
	}

	return nil, nil
}

func (l *TermLookup) describe(desc *model.EntityKindDescriptor, attr model.AttributeDescriptor) *model.AttributeDescriptor {
	attr.EntityKind = desc.Kind
	attr.SlugCandidates = append([]string(nil), desc.AttributeSlugs...)
	return &attr
}
