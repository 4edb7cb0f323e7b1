package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// resolveSwitch interprets an auto|on|off value. Auto is on when tty is a
// terminal.
func resolveSwitch(name, value string, tty *os.File) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "always", "true":
		return true, nil
	case "off", "never", "false":
		return false, nil
	case "auto", "":
		return isTerminal(tty), nil
	}
	return false, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", name, value)
}

// switchFlag reads the flag name from flags and resolves it.
func switchFlag(flags *pflag.FlagSet, name string, tty *os.File) (bool, error) {
	value, err := flags.GetString(name)
	if err != nil {
		return false, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return resolveSwitch(name, value, tty)
}
