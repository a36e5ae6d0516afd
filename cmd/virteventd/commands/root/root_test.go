package root

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func writeConfig(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "virteventd.toml")
	assert.NilError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// newTestCommand returns a root command with a no-op child so the
// persistent pre-run resolves settings the way a real subcommand would.
func newTestCommand(o *Opts, args ...string) *cobra.Command {
	cmd := NewCommand(context.Background(), "virteventd", o)
	cmd.AddCommand(&cobra.Command{
		Use:  "noop",
		RunE: func(*cobra.Command, []string) error { return nil },
	})
	cmd.SetArgs(append([]string{"noop"}, args...))
	return cmd
}

func TestSetDefaultOpts(t *testing.T) {
	t.Setenv("LIBVIRT_DEFAULT_URI", "qemu:///system")
	t.Setenv("HOME", "/home/tester")
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()

	var o Opts
	assert.NilError(t, SetDefaultOpts(&o))
	assert.Check(t, is.Equal(o.URI, "qemu:///system"))
	assert.Check(t, is.Equal(o.TickInterval, DefaultTickInterval))
	assert.Check(t, is.Equal(o.ConfigPath, filepath.Join("/home/tester", DefaultConfigName)))

	o = Opts{URI: "test:///default", TickInterval: time.Millisecond}
	assert.NilError(t, SetDefaultOpts(&o))
	assert.Check(t, is.Equal(o.URI, "test:///default"))
	assert.Check(t, is.Equal(o.TickInterval, time.Millisecond))
}

func TestTickIntervalFromEnv(t *testing.T) {
	t.Setenv("VIRTEVENTD_TICK_INTERVAL", "3s")

	var o Opts
	assert.NilError(t, SetDefaultOpts(&o))
	// defaults ignore the environment, the command applies it
	assert.Check(t, is.Equal(o.TickInterval, DefaultTickInterval))

	cmd := newTestCommand(&o, "--config", "")
	assert.NilError(t, cmd.Execute())
	assert.Check(t, is.Equal(o.TickInterval, 3*time.Second))
}

func TestConfigFileFillsUnsetFlags(t *testing.T) {
	path := writeConfig(t, `
uri = "qemu:///session"
tick-interval = "250ms"
filter-uuid = "77a6fc12-07b5-9415-8abb-a803613f2a40"
`)
	o := Opts{URI: DefaultURI, TickInterval: DefaultTickInterval}
	cmd := newTestCommand(&o, "--config", path, "--uri", "test:///flag")
	assert.NilError(t, cmd.Execute())

	assert.Check(t, is.Equal(o.URI, "test:///flag"))
	assert.Check(t, is.Equal(o.TickInterval, 250*time.Millisecond))
	assert.Check(t, is.Equal(o.FilterUUID, "77a6fc12-07b5-9415-8abb-a803613f2a40"))
}

func TestEnvBeatsConfigFile(t *testing.T) {
	path := writeConfig(t, `
uri = "qemu:///session"
tick-interval = "250ms"
`)
	t.Setenv("VIRTEVENTD_TICK_INTERVAL", "2s")

	o := Opts{URI: DefaultURI, TickInterval: DefaultTickInterval}
	cmd := newTestCommand(&o, "--config", path)
	assert.NilError(t, cmd.Execute())

	assert.Check(t, is.Equal(o.TickInterval, 2*time.Second))
	assert.Check(t, is.Equal(o.URI, "qemu:///session"))
}

func TestFlagBeatsEnv(t *testing.T) {
	t.Setenv("VIRTEVENTD_URI", "qemu:///env")

	o := Opts{URI: DefaultURI}
	cmd := newTestCommand(&o, "--uri", "test:///flag", "--config", "")
	assert.NilError(t, cmd.Execute())
	assert.Check(t, is.Equal(o.URI, "test:///flag"))

	o = Opts{URI: DefaultURI}
	cmd = newTestCommand(&o, "--config", "")
	assert.NilError(t, cmd.Execute())
	assert.Check(t, is.Equal(o.URI, "qemu:///env"))
}

func TestBadEnvValue(t *testing.T) {
	t.Setenv("VIRTEVENTD_TICK_INTERVAL", "soon")

	o := Opts{TickInterval: DefaultTickInterval}
	cmd := newTestCommand(&o, "--config", "")
	cmd.SilenceErrors = true
	err := cmd.Execute()
	assert.Check(t, errdefs.IsInvalidInput(err), "got %v", err)
}

func TestMissingConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	// the default path may be absent
	o := Opts{ConfigPath: missing}
	assert.NilError(t, newTestCommand(&o).Execute())

	// an explicit one may not
	o = Opts{}
	cmd := newTestCommand(&o, "--config", missing)
	cmd.SilenceErrors = true
	assert.Check(t, cmd.Execute() != nil)
}

func TestConfigFileErrors(t *testing.T) {
	for name, content := range map[string]string{
		"unknownKey":  `color = "blue"`,
		"badValue":    `tick-interval = "soon"`,
		"invalidToml": `uri = `,
	} {
		t.Run(name, func(t *testing.T) {
			o := Opts{}
			cmd := newTestCommand(&o, "--config", writeConfig(t, content))
			cmd.SilenceErrors = true
			err := cmd.Execute()
			assert.Check(t, errdefs.IsInvalidInput(err), "got %v", err)
		})
	}
}

func TestPreRunCalledAfterResolve(t *testing.T) {
	path := writeConfig(t, `uri = "qemu:///session"`)

	var seen string
	o := Opts{}
	cmd := NewCommand(context.Background(), "virteventd", &o, WithPreRun(func() error {
		seen = o.URI
		return nil
	}))
	cmd.AddCommand(&cobra.Command{Use: "noop", RunE: func(*cobra.Command, []string) error { return nil }})
	cmd.SetArgs([]string{"noop", "--config", path})
	assert.NilError(t, cmd.Execute())
	assert.Check(t, is.Equal(seen, "qemu:///session"))
}

func TestConfigValue(t *testing.T) {
	assert.Check(t, is.Equal(configValue(int64(5)), "5"))
	assert.Check(t, is.Equal(configValue([]interface{}{"a", "b"}), "a,b"))
	assert.Check(t, is.Equal(configValue(map[string]interface{}{"k": "v"}), "k=v"))
}
