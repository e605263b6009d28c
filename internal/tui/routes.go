package tui

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed routes.toml
var routesTOML []byte

// Route maps a path to the category its feed controller requests.
type Route struct {
	Path     string `toml:"path"`
	Category string `toml:"category"`
	Label    string `toml:"label"`
}

type routeTable struct {
	Routes []Route `toml:"routes"`
}

// Routes returns the built-in route table in tab order.
func Routes() ([]Route, error) {
	return parseRoutes(routesTOML)
}

func parseRoutes(data []byte) ([]Route, error) {
	var table routeTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing routes.toml: %w", err)
	}
	if len(table.Routes) == 0 {
		return nil, fmt.Errorf("parsing routes.toml: no routes defined")
	}
	seen := make(map[string]bool)
	for i, r := range table.Routes {
		if r.Path == "" || r.Category == "" {
			return nil, fmt.Errorf("route %d: path and category are required", i)
		}
		if seen[r.Path] {
			return nil, fmt.Errorf("route %s defined twice", r.Path)
		}
		seen[r.Path] = true
		if r.Label == "" {
			table.Routes[i].Label = capitalize(r.Category)
		}
	}
	return table.Routes, nil
}

// FindRoute resolves a path ("/science", "science") or a category name to
// its index in routes.
func FindRoute(routes []Route, name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	path := name
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for i, r := range routes {
		if r.Path == path || r.Category == name {
			return i, true
		}
	}
	return 0, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
