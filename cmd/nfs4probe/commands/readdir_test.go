package commands

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/nfs4probe/pkg/config"
)

func TestApplyReaddirFlagsOnlyChanged(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Server.Host = "nfs.example.com"

	require.NoError(t, readdirCmd.Flags().Set("port", "20490"))
	require.NoError(t, readdirCmd.Flags().Set("count", "5"))
	require.NoError(t, readdirCmd.Flags().Set("put-root-fh", "true"))

	applyReaddirFlags(readdirCmd, cfg)

	assert.Equal(t, "nfs.example.com", cfg.Server.Host)
	assert.Equal(t, 20490, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Probe.Count)
	assert.True(t, cfg.Request.PutRootFH)
	assert.False(t, cfg.Request.StandardHeader)
	assert.Equal(t, 1, cfg.Probe.Burst)
	assert.NoError(t, config.Validate(cfg))
}

func TestApplyReaddirFlagsEmptyTagAndFileHandle(t *testing.T) {
	cmd := newReaddirFlagSet(t)
	cfg := config.GetDefaultConfig()
	cfg.Request.PutRootFH = true

	require.NoError(t, cmd.Flags().Set("tag", ""))
	require.NoError(t, cmd.Flags().Set("fh", "0a0b"))
	require.NoError(t, cmd.Flags().Set("path", "export/home"))
	require.NoError(t, cmd.Flags().Set("get-fh", "true"))

	applyReaddirFlags(cmd, cfg)

	require.NotNil(t, cfg.Request.Tag)
	assert.Equal(t, "", cfg.Request.TagValue())
	assert.Equal(t, "0a0b", cfg.Request.FileHandle)
	assert.False(t, cfg.Request.PutRootFH)
	assert.Equal(t, "export/home", cfg.Request.Path)
	assert.True(t, cfg.Request.GetFH)
	assert.False(t, cfg.Request.GetAttr)
	require.NoError(t, config.Validate(cfg))

	req, err := config.BuildRequest(&cfg.Request, 0)
	require.NoError(t, err)
	assert.Equal(t, "", req.Compound.Tag)
	assert.Equal(t, []string{"PUTFH", "LOOKUP", "LOOKUP", "GETFH", "READDIR"}, req.Compound.OpNames())
}

// newReaddirFlagSet returns a command carrying fresh copies of the readdir
// flags so tests do not see each other's Changed state.
func newReaddirFlagSet(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "readdir"}
	readdirCmd.Flags().VisitAll(func(f *pflag.Flag) {
		cmd.Flags().AddFlag(&pflag.Flag{
			Name:     f.Name,
			Usage:    f.Usage,
			Value:    f.Value,
			DefValue: f.DefValue,
		})
	})
	return cmd
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range GetRootCmd().Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"readdir", "openmodes", "init", "validate", "version", "captures"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
