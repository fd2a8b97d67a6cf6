package datasource

import "fmt"

// Factory builds a DataSource from a name-keyed set of settings. A
// late-binding registry keyed by name lets the controller only need an
// adapter's name ("rest", "file") rather than importing every adapter
// implementation directly.
type Factory func(settings map[string]string) (DataSource, error)

var registry = map[string]Factory{}

// Register is called from each adapter's init() (see rest.go, file.go).
func Register(name string, f Factory) {
	registry[name] = f
}

// Get builds the named adapter with the given settings.
func Get(name string, settings map[string]string) (DataSource, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("datasource: no adapter registered for %q", name)
	}
	return f(settings)
}
