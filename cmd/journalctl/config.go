package main

import (
	"github.com/spf13/viper"

	journal "github.com/relayq/journal"
)

// defaultLimit reads the "inspect.limit" key from any loaded config
// file, letting a deployment pin a default record cap without every
// invocation passing --limit.
func defaultLimit() int {
	if viper.IsSet("inspect.limit") {
		return viper.GetInt("inspect.limit")
	}
	return 0
}

// journalOptions builds Options from the current --log-level/config
// state, so every subcommand that opens a journal shares the same
// logger configuration instead of each hardcoding DefaultOptions.
func journalOptions() *journal.Options {
	return &journal.Options{Logger: journal.NewDefaultLogger(logLevel)}
}
