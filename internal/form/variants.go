package form

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var ErrVariantEncoding = errors.New("VARIANT_ENCODING_INVALID")

// Field names of the flattened variant encoding.
const (
	VariantEncodingField = "variant_encoding"
	VariantGroupOrder    = "variant_group_order"
	variantPrefix        = "variant_group_"
	variantEncodingV2    = "2"
)

// VariantOption is one selectable option of a group (e.g. "Red").
type VariantOption struct {
	ID         string            `json:"id"`
	Attributes map[string]string `json:"attributes"`
}

// VariantGroup is a named dimension of a product (e.g. "Color").
type VariantGroup struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Options []VariantOption `json:"options"`
}

// VariantTree is the explicit group -> option -> attribute tree.
type VariantTree struct {
	Groups []VariantGroup `json:"groups"`
}

// Field is one flattened form field. Order is significant.
type Field struct {
	Name  string
	Value string
}

// escapeVariantID makes an id safe to embed between underscores.
func escapeVariantID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '%':
			b.WriteString("%25")
		case '_':
			b.WriteString("%5F")
		case ',':
			b.WriteString("%2C")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescapeVariantID(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", fmt.Errorf("%w: truncated escape in %q", ErrVariantEncoding, s)
		}
		switch strings.ToUpper(s[i+1 : i+3]) {
		case "25":
			b.WriteByte('%')
		case "5F":
			b.WriteByte('_')
		case "2C":
			b.WriteByte(',')
		default:
			return "", fmt.Errorf("%w: unknown escape %q", ErrVariantEncoding, s[i:i+3])
		}
		i += 2
	}
	return b.String(), nil
}

// Validate checks that every group and option id is set and unique within
// its scope, which the flattened encoding relies on.
func (t VariantTree) Validate() error {
	groups := make(map[string]bool, len(t.Groups))
	for i, g := range t.Groups {
		if g.ID == "" {
			return fmt.Errorf("%w: group %d has no id", ErrVariantEncoding, i+1)
		}
		if groups[g.ID] {
			return fmt.Errorf("%w: duplicate group %q", ErrVariantEncoding, g.ID)
		}
		groups[g.ID] = true

		options := make(map[string]bool, len(g.Options))
		for j, o := range g.Options {
			if o.ID == "" {
				return fmt.Errorf("%w: option %d of group %q has no id", ErrVariantEncoding, j+1, g.ID)
			}
			if options[o.ID] {
				return fmt.Errorf("%w: duplicate option %q in group %q", ErrVariantEncoding, o.ID, g.ID)
			}
			options[o.ID] = true
			for attr := range o.Attributes {
				if attr == "" {
					return fmt.Errorf("%w: option %q of group %q has an unnamed attribute", ErrVariantEncoding, o.ID, g.ID)
				}
			}
		}
	}
	return nil
}

// Flatten encodes the tree with the versioned (v2) encoding. Trees that fail
// Validate are refused rather than encoded lossily.
func (t VariantTree) Flatten() ([]Field, error) {
	if len(t.Groups) == 0 {
		return nil, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	fields := []Field{{VariantEncodingField, variantEncodingV2}}
	groupIDs := make([]string, len(t.Groups))
	for i, g := range t.Groups {
		groupIDs[i] = escapeVariantID(g.ID)
	}
	fields = append(fields, Field{VariantGroupOrder, strings.Join(groupIDs, ",")})

	for i, g := range t.Groups {
		gid := groupIDs[i]
		fields = append(fields, Field{variantPrefix + gid + "_name", g.Name})

		optionIDs := make([]string, len(g.Options))
		for j, o := range g.Options {
			optionIDs[j] = escapeVariantID(o.ID)
		}
		fields = append(fields, Field{variantPrefix + gid + "_option_order", strings.Join(optionIDs, ",")})

		for j, o := range g.Options {
			attrs := make([]string, 0, len(o.Attributes))
			for a := range o.Attributes {
				attrs = append(attrs, a)
			}
			sort.Strings(attrs)
			for _, a := range attrs {
				name := variantPrefix + gid + "_option_" + optionIDs[j] + "_" + escapeVariantID(a)
				fields = append(fields, Field{name, o.Attributes[a]})
			}
		}
	}
	return fields, nil
}

// IsVariantField reports whether a form field belongs to the variant encoding.
func IsVariantField(name string) bool {
	return name == VariantEncodingField || strings.HasPrefix(name, variantPrefix)
}

// DecodeVariants rebuilds the tree from flattened fields. Forms carrying
// variant_encoding=2 use the versioned encoding; anything else is read as the
// legacy numeric-id layout. A form without variant fields yields an empty tree.
func DecodeVariants(form map[string]string) (VariantTree, error) {
	if form[VariantEncodingField] == variantEncodingV2 {
		return decodeV2(form)
	}
	return decodeLegacy(form)
}

func splitIDs(list string) ([]string, error) {
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty id in %q", ErrVariantEncoding, list)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: duplicate id %q in %q", ErrVariantEncoding, p, list)
		}
		seen[p] = true
	}
	return parts, nil
}

func decodeV2(form map[string]string) (VariantTree, error) {
	var tree VariantTree

	groupIDs, err := splitIDs(form[VariantGroupOrder])
	if err != nil {
		return tree, err
	}

	for _, egid := range groupIDs {
		gid, err := unescapeVariantID(egid)
		if err != nil {
			return tree, err
		}
		group := VariantGroup{ID: gid, Name: form[variantPrefix+egid+"_name"]}

		optionIDs, err := splitIDs(form[variantPrefix+egid+"_option_order"])
		if err != nil {
			return tree, err
		}
		for _, eoid := range optionIDs {
			oid, err := unescapeVariantID(eoid)
			if err != nil {
				return tree, err
			}
			option := VariantOption{ID: oid, Attributes: make(map[string]string)}

			attrPrefix := variantPrefix + egid + "_option_" + eoid + "_"
			for key, value := range form {
				if !strings.HasPrefix(key, attrPrefix) {
					continue
				}
				eattr := strings.TrimPrefix(key, attrPrefix)
				// another option id sharing this prefix, not an attribute
				if strings.Contains(eattr, "_") {
					continue
				}
				attr, err := unescapeVariantID(eattr)
				if err != nil {
					return tree, err
				}
				option.Attributes[attr] = value
			}
			group.Options = append(group.Options, option)
		}
		tree.Groups = append(tree.Groups, group)
	}
	return tree, nil
}

var (
	legacyGroupName = regexp.MustCompile(`^variant_group_(\d+)_name$`)
	legacyOption    = regexp.MustCompile(`^variant_group_(\d+)_option_(\d+)_(.+)$`)
)

func decodeLegacy(form map[string]string) (VariantTree, error) {
	groups := make(map[string]*VariantGroup)
	options := make(map[string]map[string]*VariantOption)

	group := func(gid string) *VariantGroup {
		g, ok := groups[gid]
		if !ok {
			g = &VariantGroup{ID: gid}
			groups[gid] = g
			options[gid] = make(map[string]*VariantOption)
		}
		return g
	}

	for key, value := range form {
		if m := legacyGroupName.FindStringSubmatch(key); m != nil {
			group(m[1]).Name = value
			continue
		}
		if m := legacyOption.FindStringSubmatch(key); m != nil {
			group(m[1])
			opt, ok := options[m[1]][m[2]]
			if !ok {
				opt = &VariantOption{ID: m[2], Attributes: make(map[string]string)}
				options[m[1]][m[2]] = opt
			}
			opt.Attributes[m[3]] = value
			continue
		}
		if strings.HasPrefix(key, variantPrefix) {
			return VariantTree{}, fmt.Errorf("%w: unrecognised field %q", ErrVariantEncoding, key)
		}
	}

	var tree VariantTree
	for _, gid := range sortNumeric(keys(groups)) {
		g := groups[gid]
		for _, oid := range sortNumeric(keys(options[gid])) {
			g.Options = append(g.Options, *options[gid][oid])
		}
		tree.Groups = append(tree.Groups, *g)
	}
	return tree, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortNumeric(ids []string) []string {
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	return ids
}
