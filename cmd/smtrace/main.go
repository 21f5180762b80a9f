package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"smtrace/internal/config"
	"smtrace/internal/lookup"
	"smtrace/internal/sourcemap"
	"smtrace/internal/stack"
	"smtrace/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "smtrace",
		Short: "Resolve minified JavaScript positions back to original source locations",
		Long: `smtrace reads Source Map v3 artifacts and resolves generated positions
(or whole stack traces) back to the original files, offline. It needs
nothing beyond the binary and the .map files, which makes it usable on
staging and production hosts that have no Node toolchain.`,
	}
	cfgPath  string
	lineBase string
	radius   int
	useIndex bool
	mapsDir  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "smtrace.yaml", "Path to the configuration file (optional)")

	resolveCmd.Flags().StringVar(&lineBase, "line-base", "", "Line numbering of the query: auto, one or zero (default from config)")
	resolveCmd.Flags().IntVar(&radius, "context", -1, "Nearby-context radius in original lines (default from config)")
	resolveCmd.Flags().BoolVar(&useIndex, "use-index", false, "Load mappings from the SQLite index instead of reparsing")

	stackCmd.Flags().StringVar(&mapsDir, "maps-dir", "", "Directory holding the .map artifacts (default from config)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(indexCmd)
}

func mustConfig() *config.Config {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// loadArtifact reads, validates and summarizes a source map file.
func loadArtifact(path string) *sourcemap.SourceMap {
	sm, err := sourcemap.Load(path)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("Loading sourcemap: %s\n", path)
	fmt.Printf("File size: %s bytes\n", humanize.Comma(info.Size()))
	fmt.Printf("Sources: %d files\n", len(sm.Sources))
	fmt.Printf("Names: %d identifiers\n", len(sm.Names))

	return sm
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <map> <line> <column>",
	Short: "Resolve one generated position to its original source location",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		mapPath := args[0]
		line, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatalf("Error: line and column must be integers")
		}
		column, err := strconv.Atoi(args[2])
		if err != nil {
			log.Fatalf("Error: line and column must be integers")
		}

		cfg := mustConfig()
		base := lineBase
		if base == "" {
			base = cfg.Resolve.LineBase
		}
		contextRadius := radius
		if contextRadius < 0 {
			contextRadius = cfg.Resolve.Context
		}

		var mappings []sourcemap.Mapping
		if useIndex {
			store, err := storage.NewSQLiteStore(cfg.Index.Path)
			if err != nil {
				log.Fatalf("Failed to open index %s: %v", cfg.Index.Path, err)
			}
			defer store.Close()

			mappings, err = store.LoadMappings(context.Background(), mapPath)
			if err != nil {
				log.Fatalf("Error: %v (run 'smtrace index %s' first)", err, mapPath)
			}
			fmt.Printf("Loaded %s mappings from index %s\n", humanize.Comma(int64(len(mappings))), cfg.Index.Path)
		} else {
			sm := loadArtifact(mapPath)
			fmt.Println("Parsing mappings...")
			mappings = sm.Parse()
			fmt.Printf("Total mappings: %s\n", humanize.Comma(int64(len(mappings))))
		}

		fmt.Printf("\nLooking up generated position: line %d, column %d\n", line, column)

		var result *lookup.Result
		switch base {
		case "auto":
			result = lookup.FindAuto(mappings, line, column)
		case "one":
			result = lookup.Find(mappings, line-1, column)
		case "zero":
			result = lookup.Find(mappings, line, column)
		default:
			log.Fatalf("Error: unknown line base %q (want auto, one or zero)", base)
		}

		if result == nil {
			printNotFound(mappings)
			return
		}

		if result.Adjacent {
			fmt.Printf("[Note] No mappings on the queried line, using line %d\n", result.Line)
		}
		printResult(mappings, result.Mapping, contextRadius)
	},
}

const separator = "============================================================"

func printResult(mappings []sourcemap.Mapping, m sourcemap.Mapping, contextRadius int) {
	fmt.Println()
	fmt.Println(separator)
	fmt.Println("ORIGINAL SOURCE LOCATION:")
	fmt.Println(separator)

	// 0-based internally, 1-based for humans; absent fields render as a
	// placeholder because 0 is a valid position.
	if m.HasOriginal {
		fmt.Printf("  File:   %s\n", m.SourceFile)
		fmt.Printf("  Line:   %d\n", m.OriginalLine+1)
		fmt.Printf("  Column: %d\n", m.OriginalColumn+1)
	} else {
		fmt.Println("  File:   N/A")
		fmt.Println("  Line:   N/A")
		fmt.Println("  Column: N/A")
	}
	if m.HasName {
		fmt.Printf("  Name:   %s\n", m.Name)
	}
	fmt.Println(separator)

	nearby := lookup.Nearby(mappings, m, contextRadius)
	if len(nearby) == 0 {
		return
	}

	fmt.Println("\nNearby mappings in same file:")
	for _, n := range nearby {
		var extra strings.Builder
		if n.Name != "" {
			fmt.Fprintf(&extra, " (%s)", n.Name)
		}
		if n.Target {
			extra.WriteString(" <-- TARGET")
		}
		fmt.Printf("  Line %d%s\n", n.Line+1, extra.String())
	}
}

func printNotFound(mappings []sourcemap.Mapping) {
	fmt.Println("\nNo mapping found for the specified position.")
	fmt.Println("This could mean:")
	fmt.Println("  1. The column offset doesn't match (different build)")
	fmt.Println("  2. The code at that position is from a library/runtime")
	fmt.Println("  3. The sourcemap is incomplete")

	if stats := lookup.Summarize(mappings); stats != nil {
		fmt.Printf("\nSourcemap has mappings for %s generated lines\n", humanize.Comma(int64(stats.Lines)))
		fmt.Printf("Generated lines range: %d to %d\n", stats.MinLine, stats.MaxLine)
	}
}

var stackCmd = &cobra.Command{
	Use:   "stack [trace-file]",
	Short: "Resolve every frame of a pasted stack trace",
	Long: `Reads a stack trace from a file (or stdin) and rewrites each frame to
its original source location. Map files are looked up in the maps
directory by bundle basename, e.g. app.min.js -> <maps-dir>/app.min.js.map.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()
		dir := mapsDir
		if dir == "" {
			dir = cfg.Maps.Dir
		}

		var text []byte
		var err error
		if len(args) > 0 {
			text, err = os.ReadFile(args[0])
		} else {
			text, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			log.Fatalf("Failed to read trace: %v", err)
		}

		resolver, err := stack.NewResolver(dir)
		if err != nil {
			log.Fatalf("Failed to create resolver: %v", err)
		}

		lines, errs := resolver.ResolveTrace(string(text))
		for _, line := range lines {
			fmt.Println(line)
		}
		if errs != nil {
			fmt.Printf("\n[Note] Some frames could not be resolved:\n%v\n", errs)
		}
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <map>",
	Short: "Summarize a source map without resolving anything",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sm := loadArtifact(args[0])

		fmt.Println("Parsing mappings...")
		mappings := sm.Parse()
		fmt.Printf("Total mappings: %s\n", humanize.Comma(int64(len(mappings))))

		stats := lookup.Summarize(mappings)
		if stats == nil {
			fmt.Println("The mappings table is empty.")
			return
		}
		fmt.Printf("Generated lines with mappings: %s\n", humanize.Comma(int64(stats.Lines)))
		fmt.Printf("Generated lines range: %d to %d\n", stats.MinLine, stats.MaxLine)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [map]",
	Short: "Persist a parsed mapping table to the SQLite index (or list the index)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustConfig()

		store, err := storage.NewSQLiteStore(cfg.Index.Path)
		if err != nil {
			log.Fatalf("Failed to open index %s: %v", cfg.Index.Path, err)
		}
		defer store.Close()

		ctx := context.Background()

		if len(args) == 0 {
			infos, err := store.Artifacts(ctx)
			if err != nil {
				log.Fatalf("Failed to list index: %v", err)
			}
			if len(infos) == 0 {
				fmt.Println("Index is empty.")
				return
			}
			for _, info := range infos {
				fmt.Printf("%s  mappings=%s sources=%d names=%d indexed=%s\n",
					info.Path, humanize.Comma(int64(info.Mappings)), info.Sources, info.Names,
					info.IndexedAt.Format("2006-01-02 15:04:05"))
			}
			return
		}

		mapPath := args[0]
		sm := loadArtifact(mapPath)

		fmt.Println("Parsing mappings...")
		mappings := sm.Parse()
		fmt.Printf("Total mappings: %s\n", humanize.Comma(int64(len(mappings))))

		if err := store.SaveArtifact(ctx, mapPath, sm, mappings); err != nil {
			log.Fatalf("Failed to index %s: %v", mapPath, err)
		}
		fmt.Printf("Indexed %s into %s\n", mapPath, cfg.Index.Path)
	},
}
