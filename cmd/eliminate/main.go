// Command eliminate runs the polygon-elimination operation on a vector
// layer from the command line. It is a thin wrapper around package
// eliminate: argument parsing, driver guessing from a file extension,
// usage text, and process exit codes. There is exactly one command and
// no configuration file.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lnorton/eliminate/eliminate"
	"github.com/lnorton/eliminate/geomengine/geosgeom"
	"github.com/lnorton/eliminate/vectorio/shpdriver"
)

var (
	minArea float64
	where   string
	format  string
)

// root is the single command this tool exposes; there is no subcommand
// tree, since every setting here is a flag rather than a config file.
var root = &cobra.Command{
	Use:   "eliminate [-min <min_area> | -where <filter>] [-f <format>] <src> <dst>",
	Short: "Merge selected victim polygons into a touching neighbor.",
	Long: `eliminate removes a selected subset of "victim" polygons from a vector
layer by merging each one into a chosen touching neighbor, producing an
output layer in which every victim's attributes are discarded and its
geometry is absorbed into a surviving neighbor. This is the standard GIS
eliminate operation used to clean up sliver polygons left by overlay or
generalization.`,
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runEliminate,
}

func init() {
	flags := root.Flags()
	flags.Float64Var(&minArea, "min", 0, `sugar for -where "OGR_GEOM_AREA < min"; mutually exclusive with -where`)
	flags.StringVar(&where, "where", "", "attribute filter predicate selecting victim features")
	flags.StringVar(&format, "f", "", "output driver name; inferred from <dst>'s extension if omitted")
}

func main() {
	// pflag reads a single-dash word as a run of one-letter flags, so the
	// -min, -where and -f spellings from the usage line are rewritten to
	// their double-dash form before cobra parses them.
	args := os.Args[1:]
	for i, a := range args {
		for _, name := range []string{"min", "where", "f"} {
			if a == "-"+name || strings.HasPrefix(a, "-"+name+"=") {
				args[i] = "-" + a
			}
		}
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eliminate: %v\n", err)
		os.Exit(1)
	}
}

func runEliminate(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	predicate, err := resolvePredicate(minArea, where)
	if err != nil {
		return err
	}

	driverName := format
	if driverName == "" {
		driverName, err = guessDriver(dst)
		if err != nil {
			return err
		}
	}
	if driverName != shpdriver.DriverName {
		return fmt.Errorf("unsupported output driver %q: this build only ships %q", driverName, shpdriver.DriverName)
	}

	srcDS, err := shpdriver.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	dstDS, err := shpdriver.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}

	ctx := eliminate.Context{
		Source:      srcDS,
		Destination: dstDS,
		Engine:      geosgeom.New(),
	}
	opts := eliminate.Options{
		Predicate: predicate,
		Policy:    eliminate.LargestArea,
		Logger:    log.New(os.Stderr, "", log.LstdFlags),
	}

	result, err := eliminate.Run(ctx, opts)
	closeWriteLayers(dstDS)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "eliminate: kept %d feature(s), absorbed %d victim(s), dropped %d victim(s)\n",
		result.FeaturesKept, result.VictimsAbsorbed, result.VictimsDropped)
	return nil
}

// resolvePredicate applies the -min sugar rule: -min A is shorthand for
// -where "OGR_GEOM_AREA < A" with A > 0, and is mutually exclusive with
// -where. Exactly one of the two must be given.
func resolvePredicate(min float64, where string) (string, error) {
	haveMin := min != 0
	haveWhere := where != ""
	switch {
	case haveMin && haveWhere:
		return "", fmt.Errorf("-min and -where are mutually exclusive")
	case haveMin:
		if min <= 0 {
			return "", fmt.Errorf("-min must be greater than 0, got %v", min)
		}
		return "OGR_GEOM_AREA < " + strconv.FormatFloat(min, 'g', -1, 64), nil
	case haveWhere:
		return where, nil
	default:
		return "", fmt.Errorf("exactly one of -min or -where is required")
	}
}

// guessDriver infers an output driver name from dst's file extension.
// This build recognizes only the shapefile extension, so no extension is
// ambiguous; any other extension, or none, is an error.
func guessDriver(dst string) (string, error) {
	ext := strings.ToLower(filepath.Ext(dst))
	switch ext {
	case ".shp":
		return shpdriver.DriverName, nil
	case "":
		return "", fmt.Errorf("cannot infer output driver from %q: no file extension and no -f given", dst)
	default:
		return "", fmt.Errorf("cannot infer output driver from extension %q; pass -f explicitly", ext)
	}
}

// closeWriteLayers flushes every layer shpdriver.Create produced, even
// after a failed Run, so a partially emitted output (per the error
// handling design's PerFeatureWarning policy) is not left truncated.
func closeWriteLayers(ds *shpdriver.Dataset) {
	for _, l := range ds.Layers() {
		l.Close()
	}
}
