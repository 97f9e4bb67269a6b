package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"

	"github.com/joeblew999/lithium-map/internal/api"
	"github.com/joeblew999/lithium-map/internal/api/viewer"
	"github.com/joeblew999/lithium-map/internal/concession"
	"github.com/joeblew999/lithium-map/internal/db"
	"github.com/joeblew999/lithium-map/internal/humastar"
	"github.com/joeblew999/lithium-map/internal/logger"
	"github.com/joeblew999/lithium-map/internal/metrics"
	"github.com/joeblew999/lithium-map/internal/service"
	"github.com/joeblew999/lithium-map/internal/templates"
)

// DefaultDataset is the GeoJSON file looked up in the data directory when
// no dataset path is configured.
const DefaultDataset = "concessions.geojson"

const title = "Concessões de lítio"

// Config holds the server configuration.
type Config struct {
	Host        string
	Port        string
	DataDir     string
	WebDir      string // Path to web/ directory for static files and templates
	Dataset     string // GeoJSON path; defaults to <DataDir>/concessions.geojson
	Lang        string
	MapTilerKey string
	SessionTTL  time.Duration // Idle time before a viewer session is dropped
	Logger      *slog.Logger
}

// Server is the concession map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	handler  http.Handler
	humaAPI  huma.API
	links    *humastar.LinkSet
	db       *sql.DB
	services *api.Services
	renderer *templates.Renderer
	page     *template.Template
	log      *slog.Logger
	stop     context.CancelFunc
}

// New loads the dataset and builds the server.
func New(cfg Config) (*Server, error) {
	if cfg.Dataset == "" {
		cfg.Dataset = filepath.Join(cfg.DataDir, DefaultDataset)
	}
	if cfg.Lang == "" {
		cfg.Lang = concession.DefaultLang
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = service.DefaultSessionTTL
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	dataset, err := concession.LoadDataset(cfg.Dataset)
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded", "path", cfg.Dataset, "features", len(dataset.Features))

	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
		log:    log,
	}

	humaConfig := huma.DefaultConfig("Lithium concessions API", api.Version)
	humaConfig.Info.Description = "Lithium mining concessions in Portugal: map configuration, legend, click hit-testing and popups."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	// Links are derived once every route is registered.
	humaConfig.Transformers = append(humaConfig.Transformers, func(ctx huma.Context, status string, v any) (any, error) {
		return s.links.Transformer()(ctx, status, v)
	})
	s.humaAPI = humago.New(s.mux, humaConfig)

	maps := service.NewMapService(dataset, cfg.Lang, service.NewEventBus())
	tiles := service.NewTileService(cfg.DataDir)

	conn, err := db.Get(db.Config{
		DataDir:    cfg.DataDir,
		DBName:     "geo",
		Extensions: []string{"spatial"},
	})
	if err != nil {
		log.Warn("duckdb unavailable", "err", err)
	} else {
		s.db = conn
	}
	catalog := service.NewCatalog(s.db, maps.Classifier())
	if catalog.Available() {
		if err := catalog.Index(context.Background(), dataset); err != nil {
			log.Warn("catalog index failed", "err", err)
		}
	}

	s.services = &api.Services{Map: maps, Tile: tiles, Catalog: catalog}

	if cfg.WebDir != "" {
		fragmentsDir := filepath.Join(cfg.WebDir, "templates", "fragments")
		if r, err := templates.New(fragmentsDir); err == nil {
			s.renderer = r
			log.Info("fragment templates loaded", "dir", fragmentsDir)
		} else {
			log.Warn("fragment templates not loaded", "dir", fragmentsDir, "err", err)
		}
		if page, err := template.ParseFiles(filepath.Join(cfg.WebDir, "templates", "viewer.html")); err == nil {
			s.page = page
		}
	}

	s.routes()
	s.handler = logger.AccessMiddleware(log)(s.mux)

	ctx, stop := context.WithCancel(context.Background())
	s.stop = stop
	go maps.RunEviction(ctx, cfg.SessionTTL/2, cfg.SessionTTL)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close stops session eviction and closes the database.
func (s *Server) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return db.Close()
}

func (s *Server) routes() {
	// Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services, api.Config{
		MapTilerKey: s.config.MapTilerKey,
		DataURL:     s.dataURL(),
		TilesURL:    "/tiles",
	})
	api.NewInfoHandler(
		s.config.DataDir,
		s.config.Dataset,
		len(s.services.Map.Dataset().Features),
		s.db != nil,
		s.services.Tile.HasConcessionTiles(),
	).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Viewer SSE routes using Huma + Datastar SDK
	if s.renderer != nil {
		viewer.NewHandler(s.services.Map, s.renderer).RegisterRoutes(s.humaAPI)
	}

	s.links = humastar.AutoLinks(s.humaAPI, viewer.Tag)

	s.mux.Handle("/metrics", metrics.Handler())

	// Range requests from MapLibre and the PMTiles reader need CORS.
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Range"}),
		handlers.ExposedHeaders([]string{"Content-Length", "Content-Range", "Accept-Ranges"}),
	)
	s.mux.Handle("/tiles/", cors(http.StripPrefix("/tiles/", http.FileServer(http.Dir(s.services.Tile.TilesDir())))))
	s.mux.Handle(s.dataURL(), cors(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		http.ServeFile(w, r, s.config.Dataset)
	})))

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) dataURL() string {
	return "/data/" + filepath.Base(s.config.Dataset)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "lithium-map",
		"status":  "running",
		"viewer":  "/viewer",
	})
}

// handleViewer renders the map page with a fresh session id.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	if s.page == nil {
		http.Error(w, "viewer template not loaded", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.page.Execute(w, map[string]string{
		"Title":   title,
		"Lang":    s.config.Lang,
		"Session": uuid.NewString(),
	})
	if err != nil {
		s.log.Error("render viewer", "err", err)
	}
}
