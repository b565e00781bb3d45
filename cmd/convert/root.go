package convert

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dScene/cmd/util"
	"github.com/ValentinKolb/dScene/lib/common"
	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var log = logger.GetLogger("cli")

var (
	// ConvertCmd converts scene files between formats
	ConvertCmd = &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Converts scene files between formats",
		Long: `Converts scene files between formats.

The formats are guessed from the file extensions unless --from or --to is set.
Several conversions can be given with --pair and run concurrently:

  dscene convert level.json level.cbor
  dscene convert --pair a.json=a.bin --pair b.yaml=b.json --types editor::Note`,
		Args: cobra.MaximumNArgs(2),
		RunE: runConvert,
	}
)

func init() {
	key := "from"
	ConvertCmd.Flags().String(key, "", util.WrapString("Format of the input files (json, yaml, cbor, binary)"))

	key = "to"
	ConvertCmd.Flags().String(key, "", util.WrapString("Format of the output files (json, yaml, cbor, binary)"))

	key = "compression"
	ConvertCmd.Flags().String(key, "", util.WrapString("Compression of the output files (zstd, lz4, none), guessed from a .zst or .lz4 suffix if empty"))

	key = "pair"
	ConvertCmd.Flags().StringArray(key, nil, util.WrapString("A conversion in the form input=output, can be repeated"))

	key = "parallel"
	ConvertCmd.Flags().Int(key, common.DefaultConfig().Parallel, util.WrapString("Maximum number of conversions running at the same time"))
}

// job is one input/output pair
type job struct {
	in, out string
}

// formats holds the explicitly requested formats, empty fields are guessed
// from the file names
type formats struct {
	from, to    string
	compression string
}

// parseJobs collects the conversions from the arguments and the --pair flags
func parseJobs(args, pairs []string) ([]job, error) {
	var jobs []job
	switch len(args) {
	case 0:
	case 2:
		jobs = append(jobs, job{in: args[0], out: args[1]})
	default:
		return nil, fmt.Errorf("expected an input and an output file, got %d argument(s)", len(args))
	}

	for _, p := range pairs {
		in, out, ok := strings.Cut(p, "=")
		if !ok || in == "" || out == "" {
			return nil, fmt.Errorf("invalid pair %q, must be input=output", p)
		}
		jobs = append(jobs, job{in: in, out: out})
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("nothing to convert")
	}
	return jobs, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	pairs, err := cmd.Flags().GetStringArray("pair")
	if err != nil {
		return err
	}
	jobs, err := parseJobs(args, pairs)
	if err != nil {
		return err
	}

	conf := util.GetConfig()
	reg, err := util.GetRegistry(conf)
	if err != nil {
		return err
	}
	opts := formats{}
	opts.from, _ = cmd.Flags().GetString("from")
	opts.to, _ = cmd.Flags().GetString("to")
	opts.compression, _ = cmd.Flags().GetString("compression")

	// every conversion only reads the shared registry
	var g errgroup.Group
	g.SetLimit(max(conf.Parallel, 1))
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			return convert(j, opts, conf, reg)
		})
	}
	return g.Wait()
}

func convert(j job, opts formats, conf common.Config, reg *registry.TypeRegistry) error {
	decoder, err := util.SerializerForPath(opts.from, "", j.in, conf)
	if err != nil {
		return err
	}
	encoder, err := util.SerializerForPath(opts.to, opts.compression, j.out, conf)
	if err != nil {
		return err
	}

	sc, _, err := util.ReadScene(j.in, decoder, reg)
	if err != nil {
		return err
	}
	data, err := util.WriteScene(j.out, encoder, sc, reg)
	if err != nil {
		return err
	}

	log.Infof("converted %s (%s) to %s (%s): %d resources, %d entities, %d bytes",
		j.in, decoder.Name(), j.out, encoder.Name(), len(sc.Resources), len(sc.Entities), len(data))
	fmt.Printf("%s -> %s\n", j.in, j.out)
	return nil
}
