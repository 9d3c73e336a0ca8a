package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMaterial(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Teak", "wood"},
		{"wooden", "wood"},
		{"velvet", "fabric"},
		{"faux leather", "leather"},
		{"cane", "rattan"},
		{"unobtainium", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMaterial(tt.in))
		})
	}
}

func TestMaterialClass(t *testing.T) {
	assert.Equal(t, "leather", MaterialClass("KIVIK 3-seat sofa, Grann leather"))
	assert.Equal(t, "wood", MaterialClass("Solid oak TV bench"))
	assert.Equal(t, "other", MaterialClass("Cloak hook"))
}

func TestFuzzyMatchMaterial(t *testing.T) {
	assert.True(t, FuzzyMatchMaterial("wood", "sheesham bed frame"))
	assert.True(t, FuzzyMatchMaterial("leather", "leather recliner"))
	assert.False(t, FuzzyMatchMaterial("glass", "walnut coffee table"))
	assert.False(t, FuzzyMatchMaterial("", "anything"))
}

func TestFuzzyMatchSubtype(t *testing.T) {
	assert.True(t, FuzzyMatchSubtype("bedside_table", "Nightstand, white"))
	assert.True(t, FuzzyMatchSubtype("coffee_table", "LACK centre table"))
	assert.True(t, FuzzyMatchSubtype("console_table", "Slim console table"))
	assert.False(t, FuzzyMatchSubtype("dining_table", "coffee table"))
}

func TestBuildFuzzySubtypeQuery(t *testing.T) {
	cond, params, next := BuildFuzzySubtypeQuery("bedside_table", 3)

	assert.Equal(t, "(subcategory ILIKE $3 OR name ILIKE $3 OR subcategory ILIKE $4 OR name ILIKE $4 OR subcategory ILIKE $5 OR name ILIKE $5 OR subcategory ILIKE $6 OR name ILIKE $6)", cond)
	assert.Len(t, params, 4)
	assert.Equal(t, "%nightstand%", params[2])
	assert.Equal(t, 7, next)

	cond, params, next = BuildFuzzySubtypeQuery("", 3)
	assert.Empty(t, cond)
	assert.Nil(t, params)
	assert.Equal(t, 3, next)
}
