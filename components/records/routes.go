package records

import (
	"fmt"
	"net/http"
	"strings"
)

// Mux is the minimal interface required to register a net/http handler.
// It is satisfied by *http.ServeMux.
type Mux interface {
	Handle(pattern string, handler http.Handler)
}

// MountPath returns the subtree pattern the component claims under basePath.
func MountPath(basePath string) string {
	return mountPath(basePath)
}

// RegisterRoutes registers the records handler under basePath on mux.
func RegisterRoutes(mux Mux, basePath string, fns ...OptionFn) (string, error) {
	opts := NewOptions(fns...)
	return RegisterRoutesWithOptions(mux, basePath, opts)
}

// RegisterRoutesWithOptions registers a handler under basePath using a pre-built Options value.
// basePath overrides Options.BasePath so redirects and form actions match the mount point.
func RegisterRoutesWithOptions(mux Mux, basePath string, opts Options) (string, error) {
	if mux == nil {
		return "", fmt.Errorf("records: missing mux")
	}
	opts = NewOptions(func(o *Options) { *o = opts })
	pattern := mountPath(basePath)
	opts.BasePath = pattern

	handler := HandlerWithOptions(opts)
	if pattern != "/" {
		handler = http.StripPrefix(strings.TrimSuffix(pattern, "/"), handler)
	}
	mux.Handle(pattern, handler)
	return pattern, nil
}

func mountPath(basePath string) string {
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return "/"
	}
	return "/" + basePath + "/"
}
