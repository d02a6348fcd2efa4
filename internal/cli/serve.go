package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/driftwall/pkg/canvas"
	"github.com/matzehuels/driftwall/pkg/masonry"
)

// newServeCmd creates the serve command, a debug HTTP surface over the
// deterministic tile path and the masonry layout.
func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr    string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the debug HTTP server",
		Long: `Serve exposes the engine over HTTP for debugging and harnesses:

  GET /healthz                                          liveness probe
  GET /debug/stats                                      canvas statistics
  GET /tiles?min_col=&min_row=&max_col=&max_row=        deterministic tiles
  GET /items?x=&y=&width=&height=                       masonry layout items`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}

			st, err := buildStack(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			engine, err := st.newEngine(cfg, logger)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           newServer(st.canvas, engine, logger).routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			logger.Info("debug server listening", "addr", addr)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8137", "listen address")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "backend collection endpoint (overrides config)")

	return cmd
}

// server holds the handlers of the debug HTTP surface.
type server struct {
	canvas *canvas.Canvas
	engine *masonry.Engine
	logger *log.Logger
}

func newServer(cv *canvas.Canvas, engine *masonry.Engine, logger *log.Logger) *server {
	return &server{canvas: cv, engine: engine, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/debug/stats", s.handleStats)
	r.Get("/tiles", s.handleTiles)
	r.Get("/items", s.handleItems)

	return r
}

// logRequests logs one line per request at debug level.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.canvas.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"sectors":       stats.Sectors,
		"pages_loaded":  stats.PagesLoaded,
		"tiles_ready":   stats.TilesReady,
		"tiles_errored": stats.TilesErrored,
		"has_bounds":    stats.HasBounds,
		"bounds": map[string]int64{
			"min_col": stats.Bounds.MinCol,
			"min_row": stats.Bounds.MinRow,
			"max_col": stats.Bounds.MaxCol,
			"max_row": stats.Bounds.MaxRow,
		},
	})
}

func (s *server) handleTiles(w http.ResponseWriter, r *http.Request) {
	minCol, err1 := queryInt64(r, "min_col")
	minRow, err2 := queryInt64(r, "min_row")
	maxCol, err3 := queryInt64(r, "max_col")
	maxRow, err4 := queryInt64(r, "max_row")
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	tiles, err := s.canvas.ResolveRect(r.Context(), minCol, minRow, maxCol, maxRow)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	type tileJSON struct {
		Col          int64  `json:"col"`
		Row          int64  `json:"row"`
		State        string `json:"state"`
		ContentIndex int    `json:"content_index"`
		Page         int    `json:"page"`
		RecordID     string `json:"record_id,omitempty"`
	}
	out := make([]tileJSON, 0, len(tiles))
	for _, t := range tiles {
		tj := tileJSON{
			Col:          t.Col,
			Row:          t.Row,
			State:        t.State.String(),
			ContentIndex: t.ContentIndex,
			Page:         t.Page,
		}
		if t.Record != nil {
			tj.RecordID = t.Record.ID
		}
		out = append(out, tj)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleItems(w http.ResponseWriter, r *http.Request) {
	x, err1 := queryFloat(r, "x")
	y, err2 := queryFloat(r, "y")
	width, err3 := queryFloat(r, "width")
	height, err4 := queryFloat(r, "height")
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	items, err := s.engine.GetItems(r.Context(), masonry.Viewport{X: x, Y: y, Width: width, Height: height})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func queryInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
}

func queryFloat(r *http.Request, name string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(name), 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
