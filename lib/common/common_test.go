package common

import (
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for input, want := range map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		"error":   logger.ERROR,
	} {
		got, err := ParseLogLevel(input)
		require.NoError(t, err)
		require.Equal(t, want, got, input)
	}

	_, err := ParseLogLevel("loud")
	require.Error(t, err)
}

func TestInitLoggers(t *testing.T) {
	conf := DefaultConfig()
	conf.LogLevel = "nope"
	require.Error(t, InitLoggers(conf))

	conf.LogLevel = "debug"
	require.NoError(t, InitLoggers(conf))
	logger.GetLogger("scene").Debugf("logger %s initialized", "scene")
}

func TestConfigString(t *testing.T) {
	conf := DefaultConfig()
	conf.Types = []string{"editor::Note"}
	conf.TypeTags = true

	out := conf.String()
	require.Contains(t, out, "ENCODING")
	require.Regexp(t, `Type Tags\s+: true`, out)
	require.Contains(t, out, "DYNAMIC TYPES")
	require.Contains(t, out, "editor::Note")
}
