package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"invert", "generate", "materials"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestRootCmd_RejectsUnknownLogLevel(t *testing.T) {
	logLevel = "loud"
	defer func() { logLevel = "info" }()
	err := rootCmd.PersistentPreRunE(rootCmd, nil)
	assert.Error(t, err)
}

func TestFlags_Defaults(t *testing.T) {
	assert.Equal(t, "info", rootCmd.PersistentFlags().Lookup("log").DefValue)
	assert.Equal(t, "0", invertCmd.Flags().Lookup("workers").DefValue)
	assert.Equal(t, "1000", generateCmd.Flags().Lookup("systems").DefValue)
}
