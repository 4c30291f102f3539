package checkpoint

import "fmt"

// OpenStore creates a checkpoint store from a backend name. Supported
// backends are "memory" and "sqlite" (path required).
func OpenStore(backend, path string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if path == "" {
			return nil, fmt.Errorf("sqlite checkpoint backend requires a path")
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", backend)
	}
}
