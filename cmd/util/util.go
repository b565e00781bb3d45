package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/ValentinKolb/dScene/lib/common"
	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupGlobalFlags adds the flags shared by all commands
func SetupGlobalFlags(cmd *cobra.Command) {
	defaults := common.DefaultConfig()

	key := "types"
	cmd.PersistentFlags().String(key, "", WrapString("Comma-separated list of type names to register as dynamic (schema-less) types"))

	key = "type-tags"
	cmd.PersistentFlags().Bool(key, defaults.TypeTags, WrapString("Write compact registry tags instead of type names (cbor, binary)"))

	key = "pretty"
	cmd.PersistentFlags().Bool(key, defaults.Pretty, WrapString("Indent json output"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("The log level (debug, info, warn, error)"))

	key = "metrics"
	cmd.PersistentFlags().Bool(key, defaults.Metrics, WrapString("Print the collected metrics in Prometheus text format to stderr after the command"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dscene")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetConfig reads the configuration from viper
func GetConfig() common.Config {
	conf := common.DefaultConfig()
	conf.TypeTags = viper.GetBool("type-tags")
	conf.Pretty = viper.GetBool("pretty")
	conf.LogLevel = viper.GetString("log-level")
	conf.Metrics = viper.GetBool("metrics")
	if viper.IsSet("parallel") {
		conf.Parallel = viper.GetInt("parallel")
	}

	for _, t := range strings.Split(viper.GetString("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			conf.Types = append(conf.Types, t)
		}
	}
	return conf
}

// GetRegistry builds the type registry. Every configured type is registered
// as a dynamic type, since the command line tool knows no Go types.
func GetRegistry(conf common.Config) (*registry.TypeRegistry, error) {
	reg := registry.New()
	for _, name := range conf.Types {
		if _, err := registry.RegisterDynamic(reg, name); err != nil {
			return nil, fmt.Errorf("register type %q: %w", name, err)
		}
	}
	return reg, nil
}

// ResolveFormat returns format if set, otherwise the format guessed from the
// file extension of path
func ResolveFormat(format, path string) (string, error) {
	if format != "" {
		return format, nil
	}
	guessed, ok := serializer.FormatForPath(path)
	if !ok {
		return "", fmt.Errorf("cannot guess the format of %q, use one of the extensions .json, .yaml, .cbor, .bin or set the format explicitly", path)
	}
	return guessed, nil
}

// SerializerForPath creates the serializer for a scene file. A .zst or .lz4
// suffix selects the compression unless compression is set, the format is
// guessed from the remaining extension unless format is set.
func SerializerForPath(format, compression, path string, conf common.Config) (serializer.ISceneSerializer, error) {
	c, rest := serializer.CompressionForPath(path)
	if compression != "" {
		var err error
		if c, err = serializer.ParseCompression(compression); err != nil {
			return nil, err
		}
	}

	format, err := ResolveFormat(format, rest)
	if err != nil {
		return nil, err
	}
	s, err := serializer.NewSerializer(format, &serializer.Options{
		Pretty:   conf.Pretty,
		TypeTags: conf.TypeTags,
	})
	if err != nil {
		return nil, err
	}
	s = serializer.WithCompression(s, c)
	if conf.Metrics {
		s = serializer.WithMetrics(s)
	}
	return s, nil
}

// ReadScene reads and decodes a scene file. It also returns the raw bytes.
func ReadScene(path string, s serializer.ISceneSerializer, reg *registry.TypeRegistry) (*scene.Scene, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	sc, err := s.Deserialize(data, reg)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return sc, data, nil
}

// WriteScene encodes a scene and writes it to path
func WriteScene(path string, s serializer.ISceneSerializer, sc *scene.Scene, reg *registry.TypeRegistry) ([]byte, error) {
	data, err := s.Serialize(sc, reg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	return data, nil
}
