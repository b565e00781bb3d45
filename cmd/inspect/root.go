package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ValentinKolb/dScene/cmd/util"
	"github.com/ValentinKolb/dScene/lib/registry"
	"github.com/ValentinKolb/dScene/lib/scene"
	"github.com/ValentinKolb/dScene/lib/serializer"
	"github.com/ValentinKolb/dScene/lib/world"
	"github.com/spf13/cobra"
)

var (
	// InspectCmd prints the contents of a scene file
	InspectCmd = &cobra.Command{
		Use:   "inspect [file]",
		Short: "Prints the resources, entities and fingerprint of a scene file",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
)

func init() {
	key := "format"
	InspectCmd.Flags().String(key, "", util.WrapString("Format of the file (json, yaml, cbor, binary), guessed from the extension if empty"))

	key = "values"
	InspectCmd.Flags().Bool(key, false, util.WrapString("Also print the component and resource values"))
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	flagFormat, _ := cmd.Flags().GetString("format")
	values, _ := cmd.Flags().GetBool("values")

	conf := util.GetConfig()
	reg, err := util.GetRegistry(conf)
	if err != nil {
		return err
	}
	s, err := util.SerializerForPath(flagFormat, "", path, conf)
	if err != nil {
		return err
	}

	sc, data, err := util.ReadScene(path, s, reg)
	if err != nil {
		return err
	}
	return report(os.Stdout, path, s.Name(), data, sc, reg, values)
}

// report writes a summary of sc. The scene is loaded into a fresh world and
// extracted again, so the summary shows the entities as a world would hold
// them: duplicate keys merged and sorted by key.
func report(w io.Writer, path, format string, data []byte, sc *scene.Scene, reg *registry.TypeRegistry, values bool) error {
	wld := world.NewWorld()
	entityMap := world.EntityMap{}
	if err := world.WriteScene(wld, sc, entityMap); err != nil {
		return err
	}
	loaded := world.ExtractScene(wld)

	var sb strings.Builder
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}
	describe := func(v registry.Value) string {
		if values {
			return fmt.Sprintf("%+v", v.Interface())
		}
		return ""
	}

	addSection("File")
	addField("Path", path)
	addField("Format", format)
	addField("Size", fmt.Sprintf("%d bytes", len(data)))
	addField("Fingerprint", serializer.FingerprintString(data))

	addSection(fmt.Sprintf("Resources (%d)", len(sc.Resources)))
	for _, r := range wld.Resources() {
		addField(r.TypeName(), describe(r))
	}

	addSection(fmt.Sprintf("Entities (%d, %d after merging)", len(sc.Entities), len(loaded.Entities)))
	for _, e := range sc.Entities {
		target := entityMap[e.Key]
		components, _ := wld.Components(target)
		names := make([]string, 0, len(components))
		for _, c := range components {
			names = append(names, c.TypeName())
		}
		addField(e.Key.String(), strings.Join(names, ", "))
		if values {
			for _, c := range components {
				sb.WriteString(fmt.Sprintf("      %s = %s\n", c.TypeName(), describe(c)))
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
