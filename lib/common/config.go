package common

import (
	"fmt"
	"strconv"
	"strings"
)

// Config holds the settings shared by all dscene commands
type Config struct {
	// Types are additional dynamic type names registered before decoding
	Types []string
	// TypeTags makes cbor and binary output use registry tags instead of names
	TypeTags bool
	// Pretty indents json output
	Pretty bool
	// LogLevel is one of debug, info, warn, error
	LogLevel string
	// Metrics prints the collected metrics after the command finished
	Metrics bool
	// Parallel limits the number of concurrent conversions
	Parallel int
}

// DefaultConfig returns the configuration used when no flags are set
func DefaultConfig() Config {
	return Config{
		LogLevel: "warn",
		Parallel: 4,
	}
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Encoding")
	addField("Type Tags", strconv.FormatBool(c.TypeTags))
	addField("Pretty", strconv.FormatBool(c.Pretty))
	addField("Parallel", strconv.Itoa(c.Parallel))

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Metrics", strconv.FormatBool(c.Metrics))

	if len(c.Types) > 0 {
		addSection("Dynamic Types")
		for i, t := range c.Types {
			addField(strconv.Itoa(i), t)
		}
	}

	return sb.String()
}
