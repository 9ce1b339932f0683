package config

// RepositoryFileExt is the extension of introspection repository files.
const RepositoryFileExt = ".gir"

// ConfigFileNames are the recognized configuration file names, in
// lookup order.
var ConfigFileNames = []string{"girbind.yaml", "girbind.yml"}

// Universal base type: every GObject class chain is rooted here.
const (
	UniversalBaseNamespace = "GObject"
	UniversalBaseName      = "Object"
)

// ReservedMemberNames always force a function-name conflict on classes
// transitively rooted at GObject.Object, because the rendered surface
// reserves them for signal and lifecycle machinery.
var ReservedMemberNames = map[string]bool{
	"connect":       true,
	"connect_after": true,
	"disconnect":    true,
	"emit":          true,
	"notify":        true,
	"constructor":   true,
}

// KnownProblematicMembers pre-lists member names that are known to
// collide in the wild for a given namespace, keyed by namespace name.
// They are forced into a conflict of the applicable kind even when the
// structural check alone would let them pass.
var KnownProblematicMembers = map[string]map[string]bool{
	"Gtk": {
		"get_type": true,
	},
	"GObject": {
		"ref":   true,
		"unref": true,
	},
}

// DefaultSearchPaths are scanned for repositories when the
// configuration names no explicit locations.
var DefaultSearchPaths = []string{
	"/usr/share/gir-1.0",
	"/usr/local/share/gir-1.0",
}
