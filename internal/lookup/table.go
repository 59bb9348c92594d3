// internal/lookup/table.go
package lookup

import (
	"context"
	"fmt"
	"strings"

	"meal-ai/internal/macros"
	"meal-ai/internal/models"
)

const SourceTable = "table"

// Table answers from the built-in macro density table.
type Table struct{}

func (Table) Name() string { return SourceTable }

func (Table) Lookup(_ context.Context, query string) (*models.BaseInfo, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty food name", ErrInvalidQuery)
	}
	class := macros.ResolveClass(query)
	if class == macros.ClassOther {
		return nil, fmt.Errorf("table %q: %w", query, ErrNotFound)
	}
	d := macros.DensityFor(class)
	carbs, protein, fat := d.CarbsPer100g, d.ProteinPer100g, d.FatPer100g
	return &models.BaseInfo{
		Name:    class,
		Carbs:   &carbs,
		Protein: &protein,
		Fat:     &fat,
		Source:  SourceTable,
	}, nil
}
