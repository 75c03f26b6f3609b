// cmd/tools/flow-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"marketplace-gateway/internal/registration"
	"marketplace-gateway/pkg/registry"
)

// FlowData holds data for templates
type FlowData struct {
	Name         string
	PackageName  string
	FormName     string
	Route        string
	Portal       string
	UpstreamPath string
	Redirect     string
	RequireAuth  bool
	Flow         string
	Stage        string
	Fields       []Field
}

// Field is one form input of the generated rule set.
type Field struct {
	Name     string
	Label    string
	Required bool
}

// parseFields reads "name,description?,price" into fields. A trailing ? marks
// the field optional.
func parseFields(s string) []Field {
	var fields []Field
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		required := !strings.HasSuffix(part, "?")
		name := strings.TrimSuffix(part, "?")
		fields = append(fields, Field{Name: name, Label: labelFor(name), Required: required})
	}
	return fields
}

// labelFor turns contact_number into "Contact number".
func labelFor(name string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(name))
	if len(words) == 0 {
		return name
	}
	label := strings.ToLower(strings.Join(words, " "))
	return strings.ToUpper(label[:1]) + label[1:]
}

// stageConst maps a stage marker to its registration constant name.
func stageConst(stage string) string {
	parts := strings.Split(stage, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return "Stage" + strings.Join(parts, "")
}

func flowVar(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:] + "Flow"
}

const handlerTemplate = `// Package {{ .PackageName }} is the {{ .Name }} form.
package {{ .PackageName }}

import (
	"net/http"

	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
{{- if .Flow }}
	"marketplace-gateway/internal/registration"
{{- end }}
)

const (
	FormName = "{{ .FormName }}"
	Route    = "{{ .Route }}"
)

func NewFlow(config *Config) flows.Flow {
	return flows.Flow{
		Route: Route,
		Definition: form.Definition{
			Name:    FormName,
			Method:  http.MethodPost,
			Path:    config.UpstreamPath,
			Timeout: config.Timeout,
			Rules:   GetRuleSet(),
		},
{{- if .Flow }}
		Registration:    registration.{{ flowVar .Flow }},
		Stage:           registration.{{ stageConst .Stage }},
{{- end }}
		RequireAuth:     {{ .RequireAuth }},
		SuccessRedirect: config.SuccessRedirect,
	}
}
`

const configTemplate = `package {{ .PackageName }}

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled         bool          ` + "`mapstructure:\"enabled\"`" + `
	Timeout         time.Duration ` + "`mapstructure:\"timeout\"`" + `
	UpstreamPath    string        ` + "`mapstructure:\"upstream_path\"`" + `
	SuccessRedirect string        ` + "`mapstructure:\"success_redirect\"`" + `
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         15 * time.Second,
		UpstreamPath:    "{{ .UpstreamPath }}",
		SuccessRedirect: "{{ .Redirect }}",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UpstreamPath == "" {
		return fmt.Errorf("upstream_path is required")
	}
	return nil
}
`

const validationTemplate = `package {{ .PackageName }}

import "marketplace-gateway/internal/common/validation"

func GetRuleSet() validation.RuleSet {
	return validation.RuleSet{
{{- range .Fields }}
		"{{ .Name }}": {Label: "{{ .Label }}"{{ if .Required }}, Required: true{{ end }}},
{{- end }}
	}
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"net/http"
	"testing"

	"marketplace-gateway/internal/flows/flowstest"
	"marketplace-gateway/internal/models"
{{- if .Flow }}
	"marketplace-gateway/internal/registration"
{{- end }}

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validValues() map[string]interface{} {
	return map[string]interface{}{
{{- range .Fields }}
		"{{ .Name }}": "sample {{ .Name }}",
{{- end }}
	}
}

func TestGetRuleSet_RequiredFields(t *testing.T) {
	errs := GetRuleSet().Validate(map[string]interface{}{})
{{- range .Fields }}{{ if .Required }}
	assert.Equal(t, "{{ .Label }} is required", errs["{{ .Name }}"])
{{- end }}{{ end }}
}

func TestFlow_Submit(t *testing.T) {
	h := flowstest.New(t, flowstest.JSON(http.StatusCreated, ` + "`{\"success\":true}`" + `))
	srv := h.Mount(NewFlow(DefaultConfig()))
	cookie := h.NewSession("s1", map[string]string{
		models.SessionUserID: "u-1",
{{- if .Flow }}
		models.SessionRegistrationStage: registration.{{ flowVar .Flow }}.Marker(registration.{{ stageConst .Stage }}),
{{- end }}
	})

	rec := h.Post(srv, Route, cookie, validValues())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	reqs := h.Upstream.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, DefaultConfig().UpstreamPath, reqs[0].Path)
}
`

func main() {
	screenID := flag.String("screen", "", "Screen ID from registry (e.g., shipping-address)")
	outputDir := flag.String("output", "./internal/flows/", "Output directory for the generated flow")
	registryPath := flag.String("registry", "", "Path to the screen registry JSON file (built-in screens when empty)")
	upstreamPath := flag.String("upstream", "", "Marketplace API path the form posts to (e.g., /api/shops)")
	fieldList := flag.String("fields", "", "Comma-separated form fields, suffix ? for optional (e.g., name,notes?)")
	redirect := flag.String("redirect", "", "Screen path shown after a successful submit")
	flag.Parse()

	if *screenID == "" || *upstreamPath == "" || *fieldList == "" {
		fmt.Println("Usage: flow-generator --screen <id> --upstream <path> --fields <list> [--output <dir>] [--registry <path>]")
		fmt.Println("\nExample:")
		fmt.Println("  go run cmd/tools/flow-generator/main.go --screen shipping-address --upstream /api/shipping-addresses --fields recipient_name,phone,notes?")
		os.Exit(1)
	}

	reg, err := registry.Load(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry: %v\n", err)
		os.Exit(1)
	}

	screen, ok := reg.Find(*screenID)
	if !ok {
		fmt.Printf("Screen '%s' not found in registry\n", *screenID)
		os.Exit(1)
	}
	if screen.Flow != "" && registration.ByName(screen.Flow) == nil {
		fmt.Printf("Screen '%s' names unknown registration flow '%s'\n", screen.ID, screen.Flow)
		os.Exit(1)
	}

	data := FlowData{
		Name:         screen.DisplayName,
		PackageName:  strings.ReplaceAll(screen.ID, "-", ""),
		FormName:     screen.ID,
		Route:        screen.Path,
		Portal:       screen.Portal,
		UpstreamPath: *upstreamPath,
		Redirect:     *redirect,
		RequireAuth:  screen.RequireAuth,
		Flow:         screen.Flow,
		Stage:        screen.Stage,
		Fields:       parseFields(*fieldList),
	}

	flowDir := filepath.Join(*outputDir, mapPortalToDirectory(data.Portal), data.PackageName)
	if err := os.MkdirAll(flowDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		os.Exit(1)
	}

	funcMap := template.FuncMap{
		"stageConst": stageConst,
		"flowVar":    flowVar,
	}

	templates := map[string]string{
		"handler.go":      handlerTemplate,
		"config.go":       configTemplate,
		"validation.go":   validationTemplate,
		"handler_test.go": testTemplate,
	}

	for filename, tmplStr := range templates {
		tmpl, err := template.New(filename).Funcs(funcMap).Parse(tmplStr)
		if err != nil {
			fmt.Printf("Error parsing template %s: %v\n", filename, err)
			continue
		}

		filePath := filepath.Join(flowDir, filename)
		file, err := os.Create(filePath)
		if err != nil {
			fmt.Printf("Error creating file %s: %v\n", filePath, err)
			continue
		}

		if err := tmpl.Execute(file, data); err != nil {
			fmt.Printf("Error executing template for %s: %v\n", filename, err)
		}
		file.Close()

		fmt.Printf("✓ Generated %s\n", filePath)
	}

	fmt.Printf("\n✅ Flow scaffold generated successfully at: %s\n", flowDir)
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Tighten the rules in validation.go\n")
	fmt.Printf("  2. Fill in validValues in handler_test.go\n")
	fmt.Printf("  3. Register the flow in internal/server/flows.go\n")
	fmt.Printf("  4. Add configuration to configs/config.yaml\n")
}

// mapPortalToDirectory maps registry portals to flow directories
func mapPortalToDirectory(portal string) string {
	switch portal {
	case "public":
		return "account"
	case "seller":
		return "shop"
	default:
		return strings.ToLower(portal)
	}
}
