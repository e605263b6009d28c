package opener

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

//go:embed openers.toml
var openersTOML []byte

// Definition says how to invoke one opener.
type Definition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	// Command overrides the executable when the entry name is an alias.
	Command   string   `toml:"command,omitempty"`
	Args      []string `toml:"args"`
	ImageArgs []string `toml:"image_args,omitempty"`
}

type definitions struct {
	Openers map[string]Definition `toml:"openers"`
}

// Registry maps opener names to invocation details.
type Registry struct {
	defs map[string]Definition
	goos string
}

// NewRegistry loads the built-in definitions and merges openers.toml from the
// user's config directory when present.
func NewRegistry() (*Registry, error) {
	r, err := parseRegistry(openersTOML)
	if err != nil {
		return nil, err
	}
	r.mergeFile(filepath.Join(xdg.ConfigHome, "headlines", "openers.toml"))
	return r, nil
}

func parseRegistry(data []byte) (*Registry, error) {
	var defs definitions
	if err := toml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}
	if defs.Openers == nil {
		defs.Openers = make(map[string]Definition)
	}
	return &Registry{defs: defs.Openers, goos: runtime.GOOS}, nil
}

func (r *Registry) mergeFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	user, err := parseRegistry(data)
	if err != nil {
		return
	}
	for name, def := range user.defs {
		r.defs[name] = def
	}
}

// Command returns the executable and arguments for opening target with name.
func (r *Registry) Command(name string, image bool, target string) (string, []string, error) {
	def, ok := r.defs[name]
	if !ok {
		return name, []string{target}, nil
	}
	if len(def.Platforms) > 0 && !contains(def.Platforms, r.goos) {
		return "", nil, fmt.Errorf("%s not supported on %s", name, r.goos)
	}

	exe := name
	if def.Command != "" {
		exe = def.Command
	}
	args := def.Args
	if image && len(def.ImageArgs) > 0 {
		args = def.ImageArgs
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args...)
	out = append(out, target)
	return exe, out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
