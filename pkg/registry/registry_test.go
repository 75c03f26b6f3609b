package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScreens_Valid(t *testing.T) {
	reg := DefaultScreens()
	require.NoError(t, reg.Validate())

	s, ok := reg.Find("seller-product-list")
	require.True(t, ok)
	assert.Equal(t, "/seller/seller-product-list", s.Path)
	assert.Equal(t, []string{"shopId"}, s.Params())

	_, ok = reg.Find("nope")
	assert.False(t, ok)
}

func TestDefaultScreens_MockOnlyUseSiblings(t *testing.T) {
	reg := DefaultScreens()
	for _, id := range []string{"favorites", "track-order", "completed-order", "return-approval"} {
		s, ok := reg.Find(id)
		require.True(t, ok, id)
		assert.NotEmpty(t, s.SourceOf, id)
		assert.NotEmpty(t, s.DataPath, id)
	}
}

func TestValidate(t *testing.T) {
	base := func() Screen {
		return Screen{ID: "a", DisplayName: "A", Path: "/a"}
	}

	tests := []struct {
		name    string
		screens func() []Screen
		wantErr string
	}{
		{"empty", func() []Screen { return nil }, "no screens"},
		{"missing id", func() []Screen { s := base(); s.ID = ""; return []Screen{s} }, "id"},
		{"duplicate id", func() []Screen {
			b := base()
			b.Path = "/b"
			return []Screen{base(), b}
		}, "duplicate screen id"},
		{"duplicate path", func() []Screen {
			b := base()
			b.ID = "b"
			return []Screen{base(), b}
		}, "already used"},
		{"relative path", func() []Screen { s := base(); s.Path = "a"; return []Screen{s} }, "must start with /"},
		{"stage without flow", func() []Screen { s := base(); s.Stage = "approved"; return []Screen{s} }, "set together"},
		{"roles without auth", func() []Screen { s := base(); s.Roles = []string{"seller"}; return []Screen{s} }, "requireAuth"},
		{"unknown sibling", func() []Screen { s := base(); s.SourceOf = "ghost"; return []Screen{s} }, "unknown screen"},
		{"ok", func() []Screen { return []Screen{base()} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ScreenRegistry{Screens: tt.screens()}).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandDataPath(t *testing.T) {
	s := Screen{ID: "orders", DataPath: "/api/users/{userId}/orders/{orderId}"}

	got, err := s.ExpandDataPath(map[string]string{"userId": "u 1", "orderId": "o/2"})
	require.NoError(t, err)
	assert.Equal(t, "/api/users/u%201/orders/o%2F2", got)

	_, err = s.ExpandDataPath(map[string]string{"userId": "u1"})
	assert.True(t, errors.Is(err, ErrMissingParam))
	assert.Contains(t, err.Error(), "orderId")
}

func TestLoad(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScreens().Version, reg.Version)

	dir := t.TempDir()
	path := filepath.Join(dir, "screens.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"version": "2.0.0",
		"screens": [{"id": "home", "displayName": "Home", "path": "/", "dataPath": "/api/products"}]
	}`), 0o644))

	reg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", reg.Version)
	require.Len(t, reg.Screens, 1)

	require.NoError(t, os.WriteFile(path, []byte(`{"screens": []}`), 0o644))
	_, err = Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
