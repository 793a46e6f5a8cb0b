package errors

import (
	"github.com/vango-dev/shadow/pkg/cache"
	"github.com/vango-dev/shadow/pkg/reactive"
	"github.com/vango-dev/shadow/pkg/shadow"
	"github.com/vango-dev/shadow/pkg/ssr"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

const docBase = "https://github.com/vango-dev/shadow/blob/main/docs/errors.md#"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Reactive Errors (E001-E019)

	"E001": {
		Category:   CategoryReactive,
		Message:    "Effect created inside another effect",
		Detail:     "Effects cannot nest. An effect callback tried to create a new effect while it was running.",
		Suggestion: "Create the effect outside the running callback, or wrap the call in rt.WithoutEffect",
		DocURL:     docBase + "e001",
	},
	"E002": {
		Category:   CategoryReactive,
		Message:    "Write to a computed signal",
		Detail:     "Computed signals derive their value from other signals and cannot be set directly.",
		Suggestion: "Set one of the signals the computed reads instead",
		DocURL:     docBase + "e002",
	},
	"E003": {
		Category: CategoryReactive,
		Message:  "Rerun of a disposed effect",
		Detail:   "The effect was disposed and no longer tracks or reacts to signals.",
		DocURL:   docBase + "e003",
	},
	"E004": {
		Category: CategoryReactive,
		Message:  "Render loop stopped",
		Detail:   "Work was posted to a scheduler whose loop has already exited.",
		DocURL:   docBase + "e004",
	},

	// Render Errors (E020-E039)

	"E020": {
		Category:   CategoryRender,
		Message:    "Shadow node inflated twice",
		Detail:     "A shadow node owns at most one DOM node and cannot be inflated again.",
		Suggestion: "Build a fresh node for each place it is rendered",
		DocURL:     docBase + "e020",
	},
	"E021": {
		Category:   CategoryRender,
		Message:    "Shadow node not inflated",
		Detail:     "The operation needs a DOM node, but the shadow node was never inflated or mounted.",
		Suggestion: "Mount the node with Renderer.Mount before updating it",
		DocURL:     docBase + "e021",
	},
	"E022": {
		Category: CategoryRender,
		Message:  "Unsupported text attribute",
		Detail:   "Text nodes accept event listener attributes only.",
		DocURL:   docBase + "e022",
	},
	"E023": {
		Category:   CategoryRender,
		Message:    "Unsupported attribute value",
		Detail:     "Attribute values must be strings, numbers, booleans, nil, listeners, Skip or signals of those.",
		Suggestion: "Convert the value with fmt.Sprint, or wrap handlers with dom.Func",
		DocURL:     docBase + "e023",
	},
	"E024": {
		Category: CategoryRender,
		Message:  "Nil shadow node",
		DocURL:   docBase + "e024",
	},

	// Hydration Errors (E040-E049)

	"E040": {
		Category:   CategoryHydration,
		Message:    "Node cannot be restored",
		Detail:     "Only element and text nodes can be adopted from server-rendered markup.",
		Suggestion: "Remove comments and other non-element nodes from the hydrated subtree",
		DocURL:     docBase + "e040",
	},

	// Server Errors (E060-E079)

	"E060": {
		Category: CategoryServer,
		Message:  "Page render failed",
		DocURL:   docBase + "e060",
	},
	"E061": {
		Category:   CategoryServer,
		Message:    "No client bundle found",
		Detail:     "The static directory has no bundle.json and no .js file.",
		Suggestion: "Build the client bundle into the static directory or pass --static",
		DocURL:     docBase + "e061",
	},

	// Cache Errors (E080-E089)

	"E080": {
		Category: CategoryCache,
		Message:  "Render cache unavailable",
		DocURL:   docBase + "e080",
	},

	// Configuration Errors (E120-E139)

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "shadow.json could not be read or parsed.",
		DocURL:   docBase + "e120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   docBase + "e121",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   docBase + "e122",
	},

	// CLI Errors (E140-E159)

	"E140": {
		Category: CategoryCLI,
		Message:  "Unknown sample page",
		DocURL:   docBase + "e140",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Server failed",
		DocURL:   docBase + "e141",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		DocURL:   docBase + "e142",
	},
}

// sentinels maps library errors to codes, most specific first.
var sentinels = []struct {
	err  error
	code string
}{
	{reactive.ErrNestedEffect, "E001"},
	{reactive.ErrComputedWrite, "E002"},
	{reactive.ErrEffectDisposed, "E003"},
	{reactive.ErrSchedulerStopped, "E004"},
	{shadow.ErrDoubleInflate, "E020"},
	{shadow.ErrNotInflated, "E021"},
	{shadow.ErrUnsupportedTextAttribute, "E022"},
	{shadow.ErrUnsupportedAttributeValue, "E023"},
	{shadow.ErrNilNode, "E024"},
	{shadow.ErrUnrestorableNode, "E040"},
	{ssr.ErrNoBundle, "E061"},
	{cache.ErrNotFound, "E080"},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
