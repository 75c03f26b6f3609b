package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toForm(fields []Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}

func TestVariants_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tree VariantTree
	}{
		{
			name: "numeric ids",
			tree: VariantTree{Groups: []VariantGroup{
				{ID: "1", Name: "Color", Options: []VariantOption{
					{ID: "1", Attributes: map[string]string{"value": "Red", "price": "100"}},
					{ID: "2", Attributes: map[string]string{"value": "Blue", "price": "120"}},
				}},
				{ID: "2", Name: "Size", Options: []VariantOption{
					{ID: "10", Attributes: map[string]string{"value": "S"}},
					{ID: "11", Attributes: map[string]string{"value": "M", "stock": "4"}},
				}},
			}},
		},
		{
			name: "ids containing delimiters",
			tree: VariantTree{Groups: []VariantGroup{
				{ID: "grp_1", Name: "Color, finish", Options: []VariantOption{
					{ID: "opt_a,b", Attributes: map[string]string{"sku_code": "A_1", "discount%": "5"}},
					{ID: "100%", Attributes: map[string]string{"value": "x"}},
				}},
				{ID: "grp", Name: "Grp", Options: []VariantOption{
					{ID: "_", Attributes: map[string]string{"_": "underscore"}},
					{ID: "ñ", Attributes: map[string]string{"value": "unicode"}},
				}},
			}},
		},
		{
			name: "order is kept",
			tree: VariantTree{Groups: []VariantGroup{
				{ID: "z", Name: "Last alphabetically first", Options: []VariantOption{
					{ID: "9", Attributes: map[string]string{"v": "1"}},
					{ID: "10", Attributes: map[string]string{"v": "2"}},
				}},
				{ID: "a", Name: "Second", Options: []VariantOption{
					{ID: "b", Attributes: map[string]string{"v": "3"}},
					{ID: "a", Attributes: map[string]string{"v": "4"}},
				}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := tt.tree.Flatten()
			require.NoError(t, err)
			for _, f := range fields {
				assert.True(t, IsVariantField(f.Name), f.Name)
			}

			got, err := DecodeVariants(toForm(fields))
			require.NoError(t, err)
			assert.Equal(t, tt.tree, got)
		})
	}
}

func TestVariants_FlattenNaming(t *testing.T) {
	tree := VariantTree{Groups: []VariantGroup{
		{ID: "g_1", Name: "Color", Options: []VariantOption{{ID: "o1", Attributes: map[string]string{"value": "Red"}}}},
	}}
	fields, err := tree.Flatten()
	require.NoError(t, err)
	form := toForm(fields)

	assert.Equal(t, "2", form["variant_encoding"])
	assert.Equal(t, "g%5F1", form["variant_group_order"])
	assert.Equal(t, "Color", form["variant_group_g%5F1_name"])
	assert.Equal(t, "o1", form["variant_group_g%5F1_option_order"])
	assert.Equal(t, "Red", form["variant_group_g%5F1_option_o1_value"])
}

func TestVariants_EmptyTree(t *testing.T) {
	fields, err := VariantTree{}.Flatten()
	require.NoError(t, err)
	assert.Nil(t, fields)

	tree, err := DecodeVariants(map[string]string{"name": "Phone"})
	require.NoError(t, err)
	assert.Empty(t, tree.Groups)
}

func TestVariants_DecodeLegacy(t *testing.T) {
	form := map[string]string{
		"variant_group_2_name":               "Size",
		"variant_group_1_name":               "Color",
		"variant_group_1_option_2_value":     "Blue",
		"variant_group_1_option_1_value":     "Red",
		"variant_group_1_option_1_sku_code":  "RED-1",
		"variant_group_2_option_10_value":    "L",
		"variant_group_2_option_9_value":     "M",
		"name":                               "T-shirt",
	}

	tree, err := DecodeVariants(form)
	require.NoError(t, err)

	assert.Equal(t, VariantTree{Groups: []VariantGroup{
		{ID: "1", Name: "Color", Options: []VariantOption{
			{ID: "1", Attributes: map[string]string{"value": "Red", "sku_code": "RED-1"}},
			{ID: "2", Attributes: map[string]string{"value": "Blue"}},
		}},
		{ID: "2", Name: "Size", Options: []VariantOption{
			{ID: "9", Attributes: map[string]string{"value": "M"}},
			{ID: "10", Attributes: map[string]string{"value": "L"}},
		}},
	}}, tree)
}

func TestVariants_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		form map[string]string
	}{
		{"legacy non numeric", map[string]string{"variant_group_a_option_b_value": "x"}},
		{"v2 bad escape", map[string]string{"variant_encoding": "2", "variant_group_order": "g%ZZ"}},
		{"v2 truncated escape", map[string]string{"variant_encoding": "2", "variant_group_order": "g%2"}},
		{"v2 empty id", map[string]string{"variant_encoding": "2", "variant_group_order": "a,,b"}},
		{"v2 duplicate group", map[string]string{"variant_encoding": "2", "variant_group_order": "a,a"}},
		{"v2 duplicate option", map[string]string{
			"variant_encoding":              "2",
			"variant_group_order":           "a",
			"variant_group_a_option_order":  "x,x",
			"variant_group_a_option_x_name": "Red",
		}},
		{"v2 empty option id", map[string]string{
			"variant_encoding":             "2",
			"variant_group_order":          "a",
			"variant_group_a_option_order": "x,",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeVariants(tt.form)
			assert.ErrorIs(t, err, ErrVariantEncoding)
		})
	}
}

func TestVariants_FlattenRefusesAmbiguousIDs(t *testing.T) {
	option := func(id string) VariantOption {
		return VariantOption{ID: id, Attributes: map[string]string{"value": id}}
	}

	tests := []struct {
		name string
		tree VariantTree
	}{
		{"empty group id", VariantTree{Groups: []VariantGroup{
			{ID: "", Name: "Color", Options: []VariantOption{option("red")}},
		}}},
		{"duplicate group id", VariantTree{Groups: []VariantGroup{
			{ID: "g", Name: "Color", Options: []VariantOption{option("red")}},
			{ID: "g", Name: "Size", Options: []VariantOption{option("s")}},
		}}},
		{"empty option id", VariantTree{Groups: []VariantGroup{
			{ID: "g", Name: "Color", Options: []VariantOption{option("red"), option("")}},
		}}},
		{"duplicate option id", VariantTree{Groups: []VariantGroup{
			{ID: "g", Name: "Color", Options: []VariantOption{option("red"), option("red")}},
		}}},
		{"unnamed attribute", VariantTree{Groups: []VariantGroup{
			{ID: "g", Name: "Color", Options: []VariantOption{{ID: "red", Attributes: map[string]string{"": "x"}}}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := tt.tree.Flatten()
			assert.ErrorIs(t, err, ErrVariantEncoding)
			assert.Nil(t, fields)
		})
	}
}

func TestVariants_SameOptionIDInDifferentGroups(t *testing.T) {
	tree := VariantTree{Groups: []VariantGroup{
		{ID: "color", Name: "Color", Options: []VariantOption{{ID: "1", Attributes: map[string]string{"value": "Red"}}}},
		{ID: "size", Name: "Size", Options: []VariantOption{{ID: "1", Attributes: map[string]string{"value": "S"}}}},
	}}

	fields, err := tree.Flatten()
	require.NoError(t, err)
	got, err := DecodeVariants(toForm(fields))
	require.NoError(t, err)
	assert.Equal(t, tree, got)
}
