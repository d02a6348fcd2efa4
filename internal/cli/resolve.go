package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/driftwall/pkg/canvas"
	"github.com/matzehuels/driftwall/pkg/errors"
	"github.com/matzehuels/driftwall/pkg/sector"
)

// newResolveCmd creates the resolve command, which maps grid coordinates
// onto stable backend content through the deterministic tile path.
func newResolveCmd(configPath *string) *cobra.Command {
	var (
		baseURL string
		rect    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <col> <row>",
		Short: "Resolve tile content for a coordinate or rectangle",
		Long: `Resolve maps grid coordinates onto backend content.

A single coordinate resolves one tile. With --rect, a comma-separated
rectangle "minCol,minRow,maxCol,maxRow" resolves every tile it contains.
Content is deterministic: resolving the same coordinate twice always yields
the same record.`,
		Args: cobra.RangeArgs(0, 2),
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
			if noCache {
				cfg.Cache.Backend = CacheNone
			}

			st, err := buildStack(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()
			cv := st.canvas

			prog := newProgress(logger)
			sp := newSpinnerWithContext(ctx, "Resolving tiles")
			sp.Start()

			var tiles []canvas.Tile
			if rect != "" {
				r, err := parseRect(rect)
				if err != nil {
					sp.Stop()
					return err
				}
				sp.SetMessage(fmt.Sprintf("Resolving rect %d,%d to %d,%d", r[0], r[1], r[2], r[3]))
				tiles, err = cv.ResolveRect(ctx, r[0], r[1], r[2], r[3])
				sp.Stop()
				if err != nil {
					return err
				}
			} else {
				if len(args) != 2 {
					sp.Stop()
					return errors.New(errors.ErrCodeInvalidConfig, "expected <col> <row> arguments or --rect")
				}
				col, row, err := parseCoord(args[0], args[1])
				if err != nil {
					sp.Stop()
					return err
				}
				tile, err := cv.ResolveTile(ctx, col, row)
				sp.Stop()
				if err != nil {
					return err
				}
				tiles = []canvas.Tile{tile}
			}

			for _, tile := range tiles {
				printTile(tile)
			}
			printCanvasStats(cv.Stats())
			prog.done(fmt.Sprintf("Resolved %d tiles", len(tiles)))
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "backend collection endpoint (overrides config)")
	cmd.Flags().StringVar(&rect, "rect", "", "rectangle to resolve: minCol,minRow,maxCol,maxRow")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the page cache")

	return cmd
}

func parseCoord(colArg, rowArg string) (int64, int64, error) {
	col, err := strconv.ParseInt(colArg, 10, 64)
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidConfig, "invalid column %q", colArg)
	}
	row, err := strconv.ParseInt(rowArg, 10, 64)
	if err != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidConfig, "invalid row %q", rowArg)
	}
	return col, row, nil
}

// parseRect parses "minCol,minRow,maxCol,maxRow".
func parseRect(s string) ([4]int64, error) {
	var r [4]int64
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return r, errors.New(errors.ErrCodeInvalidConfig, "rectangle must be minCol,minRow,maxCol,maxRow, got %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return r, errors.New(errors.ErrCodeInvalidConfig, "invalid rectangle component %q", p)
		}
		r[i] = v
	}
	return r, nil
}

// printTile prints one resolved tile.
func printTile(tile canvas.Tile) {
	pos := fmt.Sprintf("(%d, %d)", tile.Col, tile.Row)
	switch {
	case tile.State == sector.TileReady && tile.Record != nil:
		printSuccess("%s page %d index %d  %s", pos, tile.Page, tile.ContentIndex, tile.Record.ID)
	case tile.State == sector.TileReady:
		printSuccess("%s page %d index %d", pos, tile.Page, tile.ContentIndex)
	case tile.State == sector.TileError:
		printError("%s unresolvable (pool shrank below index %d)", pos, tile.ContentIndex)
	default:
		printInfo("%s unresolved", pos)
	}
}

// printCanvasStats prints a canvas activity summary.
func printCanvasStats(stats canvas.Stats) {
	printDetail("%d sectors resident · %d pages loaded · %d tiles ready · %d errored",
		stats.Sectors, stats.PagesLoaded, stats.TilesReady, stats.TilesErrored)
	if stats.HasBounds {
		printDetail("bounds: chunks (%d,%d)..(%d,%d)",
			stats.Bounds.MinCol, stats.Bounds.MinRow, stats.Bounds.MaxCol, stats.Bounds.MaxRow)
	}
}
