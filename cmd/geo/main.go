package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/lithium-map/internal/logger"
	"github.com/joeblew999/lithium-map/internal/server"
	"github.com/joeblew999/lithium-map/internal/service"
	"github.com/joeblew999/lithium-map/internal/tiler"
	"github.com/joeblew999/lithium-map/internal/tiler/gotiler"
)

// Options defines all CLI flags and env vars for the geo server.
// Flags: --host, --port, --data-dir, --web-dir, --dataset, --lang, --maptiler-key,
// --session-ttl
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, SERVICE_WEB_DIR,
// SERVICE_DATASET, SERVICE_LANG, SERVICE_MAPTILER_KEY, SERVICE_SESSION_TTL
type Options struct {
	Host        string        `doc:"Host to bind to" default:"0.0.0.0"`
	Port        int           `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir     string        `doc:"Directory for geo data files" default:".data"`
	WebDir      string        `doc:"Path to web/ directory" default:"web"`
	Dataset     string        `doc:"Concession GeoJSON file (default <data-dir>/concessions.geojson)"`
	Lang        string        `doc:"Language for status labels" default:"pt"`
	MaptilerKey string        `doc:"MapTiler API key for the basemap"`
	SessionTTL  time.Duration `doc:"Idle time before a viewer session is dropped" default:"30m"`
}

func datasetPath(opts *Options) string {
	if opts.Dataset != "" {
		return opts.Dataset
	}
	return filepath.Join(opts.DataDir, server.DefaultDataset)
}

func newServer(opts *Options) *server.Server {
	srv, err := server.New(server.Config{
		Host:        opts.Host,
		Port:        fmt.Sprintf("%d", opts.Port),
		DataDir:     opts.DataDir,
		WebDir:      opts.WebDir,
		Dataset:     datasetPath(opts),
		Lang:        opts.Lang,
		MapTilerKey: opts.MaptilerKey,
		SessionTTL:  opts.SessionTTL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}
	return srv
}

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()
	log := logger.Setup()

	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		srv := newServer(opts)

		hooks.OnStart(func() {
			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("lithium-map server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", datasetPath(opts))
			fmt.Println()
			fmt.Printf("  Viewer:  %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			if err := http.ListenAndServe(addr, srv); err != nil {
				log.Error("server error", "err", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			srv.Close()
		})
	})

	cli.Root().Use = "geo"
	cli.Root().Short = "Map of lithium mining concessions in Portugal"
	cli.Root().Version = "1.0.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// tiles subcommand: build the concession PMTiles archive
	tilesCmd := &cobra.Command{
		Use:   "tiles",
		Short: "Build vector tiles for the concession dataset",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg := tiler.DefaultConfig
			cfg.MinZoom, _ = cmd.Flags().GetInt("min-zoom")
			cfg.MaxZoom, _ = cmd.Flags().GetInt("max-zoom")

			tiles := service.NewTileService(opts.DataDir)
			if err := os.MkdirAll(tiles.TilesDir(), 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Error creating tiles dir: %v\n", err)
				os.Exit(1)
			}

			t := gotiler.New()
			out := tiles.ConcessionTilesPath()
			log.Info("building tiles", "tiler", t.Name(), "input", datasetPath(opts), "output", out,
				"min_zoom", cfg.MinZoom, "max_zoom", cfg.MaxZoom)
			if err := t.Tile(datasetPath(opts), out, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error building tiles: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Tiles written to %s\n", out)
		}),
	}
	tilesCmd.Flags().Int("min-zoom", tiler.DefaultConfig.MinZoom, "Minimum zoom level")
	tilesCmd.Flags().Int("max-zoom", tiler.DefaultConfig.MaxZoom, "Maximum zoom level")
	cli.Root().AddCommand(tilesCmd)

	cli.Run()
}
