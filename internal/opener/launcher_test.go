package opener

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/validation"
)

type startCall struct {
	name string
	args []string
}

func testLauncher(t *testing.T, goos string, installed ...string) (*Launcher, *[]startCall) {
	t.Helper()
	registry, err := parseRegistry(openersTOML)
	require.NoError(t, err)
	registry.goos = goos

	have := make(map[string]bool)
	for _, name := range installed {
		have[name] = true
	}

	var calls []startCall
	l := &Launcher{
		registry:  registry,
		validator: validation.NewURLValidator(),
		start: func(name string, args ...string) error {
			calls = append(calls, startCall{name: name, args: args})
			return nil
		},
		lookPath: func(name string) (string, error) {
			if have[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
	}
	l.configure(config.TestConfig().Browser, goos)
	return l, &calls
}

func TestLauncher_LinuxPicksFirstInstalled(t *testing.T) {
	l, calls := testLauncher(t, "linux", "firefox", "feh", "eog")

	assert.Equal(t, "firefox", l.web)
	assert.Equal(t, "feh", l.image)

	require.NoError(t, l.OpenURL("https://example.org/story"))
	require.NoError(t, l.OpenImage("https://example.org/story.jpg"))

	require.Len(t, *calls, 2)
	assert.Equal(t, startCall{"firefox", []string{"--new-tab", "https://example.org/story"}}, (*calls)[0])
	assert.Equal(t, startCall{"feh", []string{"--scale-down", "--auto-zoom", "https://example.org/story.jpg"}}, (*calls)[1])
}

func TestLauncher_WindowsUsesURLHandler(t *testing.T) {
	l, calls := testLauncher(t, "windows", "rundll32")

	require.NoError(t, l.OpenURL("https://example.org/a"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "rundll32", (*calls)[0].name)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler", "https://example.org/a"}, (*calls)[0].args)
}

func TestLauncher_DarwinPreviewAlias(t *testing.T) {
	l, calls := testLauncher(t, "darwin", "open")

	// preview resolves through the open executable
	assert.Equal(t, "preview", l.image)
	require.NoError(t, l.OpenImage("https://example.org/a.png"))
	assert.Equal(t, startCall{"open", []string{"-a", "Preview", "https://example.org/a.png"}}, (*calls)[0])
}

func TestLauncher_FallsBackToDefaultOpener(t *testing.T) {
	l, calls := testLauncher(t, "linux")
	l.registry.goos = runtime.GOOS

	assert.Equal(t, config.TestConfig().Browser.DefaultOpener, l.web)
	assert.Equal(t, l.web, l.image)
	require.NoError(t, l.OpenURL("https://example.org"))
	assert.Len(t, *calls, 1)
}

func TestLauncher_RejectsUnsafeLinks(t *testing.T) {
	l, calls := testLauncher(t, "linux", "xdg-open")

	for _, link := range []string{"", "javascript:alert(1)", "file:///etc/passwd"} {
		assert.Error(t, l.OpenURL(link), link)
	}
	assert.Empty(t, *calls)
}

func TestLauncher_StartFailure(t *testing.T) {
	l, _ := testLauncher(t, "linux", "xdg-open")
	l.start = func(string, ...string) error { return errors.New("exec format error") }

	err := l.OpenURL("https://example.org")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start xdg-open")
}

func TestRegistry_Command(t *testing.T) {
	r, err := parseRegistry(openersTOML)
	require.NoError(t, err)

	r.goos = "linux"
	exe, args, err := r.Command("unlisted-browser", false, "https://x.org")
	require.NoError(t, err)
	assert.Equal(t, "unlisted-browser", exe)
	assert.Equal(t, []string{"https://x.org"}, args)

	_, _, err = r.Command("rundll32", false, "https://x.org")
	assert.Error(t, err, "rundll32 is windows only")
}

func TestRegistry_MergeUserFile(t *testing.T) {
	r, err := parseRegistry(openersTOML)
	require.NoError(t, err)
	r.goos = "linux"

	path := filepath.Join(t.TempDir(), "openers.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[openers.mybrowser]
platforms = ["linux"]
args = ["--private"]
`), 0o644))
	r.mergeFile(path)
	r.mergeFile(filepath.Join(t.TempDir(), "missing.toml"))

	_, ok := r.defs["xdg-open"]
	assert.True(t, ok, "built-in definitions survive a merge")

	exe, args, err := r.Command("mybrowser", false, "https://x.org")
	require.NoError(t, err)
	assert.Equal(t, "mybrowser", exe)
	assert.Equal(t, []string{"--private", "https://x.org"}, args)

	_, err = parseRegistry([]byte("not = [valid"))
	assert.Error(t, err)
}
