// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"marketplace-gateway/pkg/registry"
)

const defaultPath = "configs/screen-registry.json"

var registryPath string

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{initCmd, listCmd, addCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", defaultPath, "Path to registry file")
	}

	force := initCmd.Bool("force", false, "Overwrite an existing registry file")
	portalFilter := listCmd.String("portal", "", "Only list screens of this portal")

	// Add command flags
	idAdd := addCmd.String("id", "", "Screen ID (e.g., seller-orders)")
	displayName := addCmd.String("displayName", "", "Display Name (e.g., Shop orders)")
	portal := addCmd.String("portal", "", "Portal (customer, seller, rider, moderator, public)")
	path := addCmd.String("route", "", "Gateway path (e.g., /seller/orders)")
	dataPath := addCmd.String("dataPath", "", "Upstream GET path, may use {userId}, {shopId}, {riderId}")
	flow := addCmd.String("flow", "", "Registration flow (rider, seller)")
	stage := addCmd.String("stage", "", "Registration stage the screen belongs to")
	roles := addCmd.String("roles", "", "Comma separated roles allowed on the screen")
	denyPath := addCmd.String("denyPath", "", "Where other roles are sent")
	auth := addCmd.Bool("auth", false, "Require a signed-in user")

	// Update command flags
	idUpdate := updateCmd.String("id", "", "Screen ID to update")
	field := updateCmd.String("field", "", "Field to update (displayName, dataPath, roles, etc.)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		if err := initRegistry(*force); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote built-in screens to %s\n", registryPath)

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listScreens(*portalFilter); err != nil {
			fmt.Printf("Error listing screens: %v\n", err)
			os.Exit(1)
		}

	case "add":
		addCmd.Parse(os.Args[2:])
		if *idAdd == "" || *displayName == "" || *path == "" {
			fmt.Println("Error: id, displayName, and route are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		screen := registry.Screen{
			ID:          *idAdd,
			DisplayName: *displayName,
			Portal:      *portal,
			Path:        *path,
			Flow:        *flow,
			Stage:       *stage,
			RequireAuth: *auth,
			Roles:       splitList(*roles),
			DenyPath:    *denyPath,
			DataPath:    *dataPath,
		}
		if err := addScreen(&screen); err != nil {
			fmt.Printf("Error adding screen: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added screen: %s\n", *idAdd)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" {
			fmt.Println("Error: id and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateScreen(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating screen: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated screen %s, field %s to %q\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func initRegistry(force bool) error {
	if _, err := os.Stat(registryPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use -force to overwrite", registryPath)
	}
	reg := registry.DefaultScreens()
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

// loadOrDefault starts from the built-in screens when the file does not exist yet.
func loadOrDefault() (*registry.ScreenRegistry, error) {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		if os.IsNotExist(err) {
			return registry.DefaultScreens(), nil
		}
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return reg, nil
}

func listScreens(portal string) error {
	reg, err := loadOrDefault()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tPORTAL\tAUTH\tROLES\tSTAGE\tDATA")
	for _, s := range reg.Screens {
		if portal != "" && s.Portal != portal {
			continue
		}
		stage := "-"
		if s.Flow != "" {
			stage = s.Flow + "/" + s.Stage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\t%s\n",
			s.ID, s.Path, s.Portal, s.RequireAuth, strings.Join(s.Roles, ","), stage, s.DataPath)
	}
	return w.Flush()
}

func addScreen(screen *registry.Screen) error {
	reg, err := loadOrDefault()
	if err != nil {
		return err
	}

	if _, exists := reg.Find(screen.ID); exists {
		return fmt.Errorf("screen with ID %s already exists", screen.ID)
	}

	reg.Screens = append(reg.Screens, *screen)
	if err := reg.Validate(); err != nil {
		return err
	}
	reg.LastUpdated = time.Now().Format(time.RFC3339)

	return saveRegistry(reg, registryPath)
}

func updateScreen(id, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	s, found := reg.Find(id)
	if !found {
		return fmt.Errorf("screen with ID %s not found", id)
	}

	switch field {
	case "displayName":
		s.DisplayName = value
	case "portal":
		s.Portal = value
	case "path":
		s.Path = value
	case "dataPath":
		s.DataPath = value
	case "flow":
		s.Flow = value
	case "stage":
		s.Stage = value
	case "roles":
		s.Roles = splitList(value)
	case "denyPath":
		s.DenyPath = value
	case "sourceOf":
		s.SourceOf = value
	case "requireAuth":
		auth, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid requireAuth value: %w", err)
		}
		s.RequireAuth = auth
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if err := reg.Validate(); err != nil {
		return err
	}
	reg.LastUpdated = time.Now().Format(time.RFC3339)
	return saveRegistry(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	fmt.Printf("Registry validation passed. Found %d screens.\n", len(reg.Screens))
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// saveRegistry handles saving the registry to file
func saveRegistry(reg *registry.ScreenRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}

	return nil
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  init     Write the built-in screens to the registry file
  list     List screens
  add      Add a new screen to the registry
  update   Update an existing screen's field
  validate Validate the registry file
  help     Show this help message

Examples:
  registry-updater init -path configs/screen-registry.json
  registry-updater list -portal seller
  registry-updater add -id seller-reviews -displayName "Reviews" -portal seller -route /seller/reviews -auth -roles seller -dataPath "/api/shops/{shopId}/reviews"
  registry-updater update -id seller-reviews -field denyPath -value /
  registry-updater validate -path configs/screen-registry.json

Use 'registry-updater <command> -h' for more information about a command.
` + "\n")
}
