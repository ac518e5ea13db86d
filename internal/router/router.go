// Package router generates application paths from named route patterns.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrRouteNotFound is returned for an unknown route name
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingParameters is returned when a placeholder has no value
	ErrMissingParameters = errors.New("missing mandatory parameters")
)

var (
	placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)
	hostPattern        = regexp.MustCompile(`^https?://[^/?#]+`)
)

// Table maps route names to path patterns such as /admin/user/{id}/edit
type Table struct {
	routes map[string]string
}

// NewTable copies routes into a new table
func NewTable(routes map[string]string) *Table {
	t := &Table{routes: make(map[string]string, len(routes))}
	for name, pattern := range routes {
		t.routes[name] = pattern
	}
	return t
}

// Has reports whether name is a known route
func (t *Table) Has(name string) bool {
	_, ok := t.routes[name]
	return ok
}

// Len returns the number of routes
func (t *Table) Len() int {
	return len(t.routes)
}

// Generate fills the placeholders of the named route. Parameters without a
// placeholder are appended as a query string, sorted by key.
func (t *Table) Generate(name string, params url.Values) (string, error) {
	pattern, ok := t.routes[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	used := make(map[string]bool)
	var missing []string
	path := placeholderPattern.ReplaceAllStringFunc(pattern, func(placeholder string) string {
		key := placeholder[1 : len(placeholder)-1]
		value := params.Get(key)
		if value == "" {
			missing = append(missing, key)
			return placeholder
		}
		used[key] = true
		return url.PathEscape(value)
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w (%s) to generate a URL for route %q", ErrMissingParameters, strings.Join(missing, ", "), name)
	}

	extra := url.Values{}
	for key, values := range params {
		if !used[key] {
			extra[key] = values
		}
	}
	if len(extra) > 0 {
		path += "?" + extra.Encode()
	}
	return path, nil
}

// Locate resolves "route_name;a=1&b=2" to a generated path. Anything the
// table cannot generate is returned unchanged. The result never carries a
// scheme or host.
func (t *Table) Locate(path string) string {
	name, query, _ := strings.Cut(path, ";")

	located := path
	if params, err := url.ParseQuery(query); err == nil {
		if generated, err := t.Generate(name, params); err == nil {
			located = generated
		}
	}
	return RemoveHost(located)
}

// RemoveHost strips a leading scheme and host: http://host.com/foo?bar -> /foo?bar
func RemoveHost(u string) string {
	return hostPattern.ReplaceAllString(u, "")
}
