// pkg/registry/schema.go
package registry

// ScreenRegistry is the table of read-only screens the gateway serves.
type ScreenRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Screens     []Screen `json:"screens"`
}

// Screen is one protected or public page.
type Screen struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	// Portal groups screens: customer, seller, rider, moderator or public.
	Portal string `json:"portal"`
	// Path is a chi route pattern; {name} segments become URL params.
	Path string `json:"path"`

	// Flow and Stage pin the screen to a registration wizard step.
	Flow  string `json:"flow,omitempty"`
	Stage string `json:"stage,omitempty"`

	RequireAuth bool     `json:"requireAuth"`
	Roles       []string `json:"roles,omitempty"`
	DenyPath    string   `json:"denyPath,omitempty"`

	// DataPath is the upstream GET whose data the screen renders. Besides URL
	// params it may use {userId}, {shopId} and {riderId} from the session.
	DataPath string `json:"dataPath,omitempty"`
	// SourceOf names the sibling screen whose API this one borrows because it
	// never had its own.
	SourceOf string   `json:"sourceOf,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}
