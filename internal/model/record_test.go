package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/freightflow/internal/common"
)

func TestRecord_With(t *testing.T) {
	rec := NewRecord("jan.xlsx", 2, map[string]Value{"Type": Text("Laden")})

	classified, err := rec.With(FieldCategory, Text("ICL AFH"))
	require.NoError(t, err)
	assert.Equal(t, "ICL AFH", classified.Category())
	assert.Equal(t, "", rec.Category(), "original is unchanged")
	assert.True(t, classified.Has(FieldCategory))
	assert.False(t, rec.Has(FieldCategory))

	_, err = classified.With(FieldCategory, Text("Overig"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDerivedFieldSet))
}

func TestRecord_GetPrefersDerived(t *testing.T) {
	rec := NewRecord("", 3, map[string]Value{"category": Text("source")})
	assert.True(t, rec.Has("category"))

	rec, err := rec.With("category", Text("derived"))
	require.NoError(t, err)
	assert.Equal(t, "derived", rec.Get("category").String())
	assert.Equal(t, "source", rec.Fields["category"].String())
	assert.False(t, rec.Has("missing"))
}

func TestRecord_Origin(t *testing.T) {
	assert.Equal(t, "jan.xlsx row 4", NewRecord("jan.xlsx", 4, nil).Origin())
	assert.Equal(t, "row 4", NewRecord("", 4, nil).Origin())
}
