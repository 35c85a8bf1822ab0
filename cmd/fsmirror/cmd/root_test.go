package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddConfigFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(fs)

	for _, name := range []string{"config", "loglevel"} {
		require.NotNil(t, fs.Lookup(name), name)
	}
	assert.Equal(t, "info", fs.Lookup("loglevel").DefValue)
}
