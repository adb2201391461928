package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"intranet-backend/internal/domains/taxonomy/model"
)

func TestImport_MixedRows(t *testing.T) {
	h := newHarness(t)
	csv := "\ufeffnombre_marca,descripcion\n" +
		"Planeta,Grupo editorial\n" +
		",sin nombre\n" +
		"Anaya,\n"

	res, err := h.svc.Import(context.Background(), model.KindBrand, strings.NewReader(csv))

	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Rows, 3)

	assert.Equal(t, 2, res.Rows[0].Row)
	assert.True(t, res.Rows[0].Success)
	assert.Equal(t, "Planeta", res.Rows[0].Name)
	assert.Equal(t, "doc1", res.Rows[0].LinkingKey)

	assert.Equal(t, 3, res.Rows[1].Row)
	assert.False(t, res.Rows[1].Success)
	assert.NotEmpty(t, res.Rows[1].Error)

	assert.True(t, res.Rows[2].Success)
	assert.Len(t, h.terms.terms, 2)
}

func TestImport_Rejects(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body string
	}{
		{"header only", "name\n"},
		{"empty", ""},
		{"too many rows", "name\n" + strings.Repeat("x\n", maxImportRows+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Import(context.Background(), model.KindTag, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, model.IsValidationError(err))
		})
	}
	assert.Zero(t, h.rec.count("strapi.create"))
}

func TestImport_InvalidKind(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Import(context.Background(), model.EntityKind("autor"), strings.NewReader("name\nx\n"))

	assert.True(t, model.IsInvalidKind(err))
}

func TestExport_WritesWorkbook(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Create(ctx, model.KindBrand, map[string]any{"name": "Planeta", "description": "Grupo"})
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, model.KindBrand, map[string]any{"name": "Anaya"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.svc.Export(ctx, model.KindBrand, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	desc := mustDesc(t, model.KindBrand)
	rows, err := f.GetRows(desc.Collection)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "documentId", rows[0][1])
	nameSpec, ok := desc.Field(model.FieldName)
	require.True(t, ok)
	assert.Equal(t, nameSpec.Upstream, rows[0][2])

	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "doc1", rows[1][1])
	assert.Equal(t, "Planeta", rows[1][2])
	assert.Equal(t, "doc2", rows[2][1])
	assert.Equal(t, "Anaya", rows[2][2])
}
