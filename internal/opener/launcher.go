// Package opener hands article links and images to the desktop.
package opener

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/validation"
)

// Launcher starts the configured browser or image viewer detached from the
// terminal.
type Launcher struct {
	web       string
	image     string
	registry  *Registry
	validator *validation.URLValidator
	start     func(name string, args ...string) error
	lookPath  func(string) (string, error)
}

func NewLauncher(cfg config.BrowserConfig) *Launcher {
	registry, err := NewRegistry()
	if err != nil {
		registry = &Registry{defs: make(map[string]Definition), goos: runtime.GOOS}
	}
	l := &Launcher{
		registry:  registry,
		validator: validation.NewURLValidator(),
		start:     startDetached,
		lookPath:  exec.LookPath,
	}
	l.configure(cfg, runtime.GOOS)
	return l
}

func (l *Launcher) configure(cfg config.BrowserConfig, goos string) {
	var openers config.Openers
	switch goos {
	case "darwin":
		openers = cfg.Darwin
	case "windows":
		openers = cfg.Windows
	default:
		openers = cfg.Linux
	}

	l.web = l.findCommand(openers.Web...)
	l.image = l.findCommand(openers.Image...)
	if l.web == "" {
		l.web = cfg.DefaultOpener
	}
	if l.image == "" {
		l.image = l.web
	}
}

func (l *Launcher) findCommand(commands ...string) string {
	for _, cmd := range commands {
		exe := cmd
		if def, ok := l.registry.defs[cmd]; ok && def.Command != "" {
			exe = def.Command
		}
		if _, err := l.lookPath(exe); err == nil {
			return cmd
		}
	}
	return ""
}

// OpenURL opens an article link in the browser.
func (l *Launcher) OpenURL(link string) error {
	return l.open(l.web, link, false)
}

// OpenImage opens an article image in the image viewer.
func (l *Launcher) OpenImage(link string) error {
	return l.open(l.image, link, true)
}

func (l *Launcher) open(name, link string, image bool) error {
	target, err := l.validator.ValidateLink(link)
	if err != nil {
		return fmt.Errorf("refusing to open link: %w", err)
	}
	if name == "" {
		return fmt.Errorf("no application found to open URL")
	}

	exe, args, err := l.registry.Command(name, image, target)
	if err != nil {
		return err
	}
	debuglog.Debugf("opening %s with %s %v", target, exe, args)
	if err := l.start(exe, args...); err != nil {
		return fmt.Errorf("failed to start %s: %w", exe, err)
	}
	return nil
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
