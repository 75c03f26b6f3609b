// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var ErrMissingParam = errors.New("MISSING_PATH_PARAM")

var placeholder = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

func LoadRegistry(path string) (*ScreenRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ScreenRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Load returns the registry at path, or the built-in one when path is empty.
func Load(path string) (*ScreenRegistry, error) {
	if path == "" {
		return DefaultScreens(), nil
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load screen registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("screen registry %s: %w", path, err)
	}
	return reg, nil
}

// Find returns the screen with id.
func (r *ScreenRegistry) Find(id string) (*Screen, bool) {
	for i := range r.Screens {
		if r.Screens[i].ID == id {
			return &r.Screens[i], true
		}
	}
	return nil, false
}

// Validate checks ids and paths are unique and every entry is complete.
func (r *ScreenRegistry) Validate() error {
	if len(r.Screens) == 0 {
		return fmt.Errorf("registry contains no screens")
	}

	ids := make(map[string]bool)
	paths := make(map[string]string)
	for _, s := range r.Screens {
		if s.ID == "" {
			return fmt.Errorf("screen missing required field: id")
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate screen id: %s", s.ID)
		}
		ids[s.ID] = true

		if !strings.HasPrefix(s.Path, "/") {
			return fmt.Errorf("screen %s: path must start with /", s.ID)
		}
		if other, ok := paths[s.Path]; ok {
			return fmt.Errorf("screen %s: path %s already used by %s", s.ID, s.Path, other)
		}
		paths[s.Path] = s.ID

		if s.DisplayName == "" {
			return fmt.Errorf("screen %s missing required field: displayName", s.ID)
		}
		if (s.Flow == "") != (s.Stage == "") {
			return fmt.Errorf("screen %s: flow and stage must be set together", s.ID)
		}
		if len(s.Roles) > 0 && !s.RequireAuth {
			return fmt.Errorf("screen %s: roles require requireAuth", s.ID)
		}
		if s.DataPath != "" && !strings.HasPrefix(s.DataPath, "/") {
			return fmt.Errorf("screen %s: dataPath must start with /", s.ID)
		}
	}

	for _, s := range r.Screens {
		if s.SourceOf != "" && !ids[s.SourceOf] {
			return fmt.Errorf("screen %s: sourceOf names unknown screen %s", s.ID, s.SourceOf)
		}
	}
	return nil
}

// ExpandDataPath fills the placeholders of DataPath. Every value is
// path-escaped; a placeholder without a value is an error.
func (s Screen) ExpandDataPath(params map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(s.DataPath, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok || v == "" {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(v)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s needs %s", ErrMissingParam, s.ID, strings.Join(missing, ", "))
	}
	return out, nil
}

// Params lists the placeholder names used by DataPath.
func (s Screen) Params() []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(s.DataPath, -1) {
		names = append(names, m[1])
	}
	return names
}
