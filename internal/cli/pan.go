package cli

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/driftwall/pkg/masonry"
	"github.com/matzehuels/driftwall/pkg/stablehash"
)

// newPanCmd creates the pan command, an interactive terminal view of the
// masonry layout.
func newPanCmd(configPath *string) *cobra.Command {
	var (
		baseURL   string
		synthetic bool
	)

	cmd := &cobra.Command{
		Use:   "pan",
		Short: "Interactively pan the masonry layout in the terminal",
		Long: `Pan renders the masonry layout as colored blocks and moves the viewport
with the arrow keys (or hjkl). Press q to quit.

With --synthetic the layout is fed from a built-in generator instead of the
backend, which makes the command usable offline.`,
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

			var engine *masonry.Engine
			if synthetic {
				engine, err = masonry.New(masonry.Options{
					Generator:   syntheticGenerator(),
					ColumnWidth: cfg.Layout.ColumnWidth,
					ColumnGap:   cfg.Layout.ColumnGap,
					RowGap:      cfg.Layout.RowGap,
					OverscanY:   cfg.Layout.OverscanY,
					Logger:      logger,
				})
				if err != nil {
					return err
				}
			} else {
				st, err := buildStack(ctx, cfg, logger)
				if err != nil {
					return err
				}
				defer st.close()
				if engine, err = st.newEngine(cfg, logger); err != nil {
					return err
				}
			}

			model := newPanModel(engine, cfg.Layout)
			_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "backend collection endpoint (overrides config)")
	cmd.Flags().BoolVar(&synthetic, "synthetic", false, "use a built-in content generator instead of the backend")

	return cmd
}

// syntheticGenerator yields deterministic pseudo-random aspect ratios so the
// pan command works without a backend.
func syntheticGenerator() masonry.Generator {
	n := int64(0)
	return masonry.GeneratorFunc(func(ctx context.Context) (masonry.Descriptor, error) {
		n++
		key := stablehash.Mix(n, 0, 0x70616e)
		return masonry.Descriptor{
			ID:     fmt.Sprintf("synthetic-%d", n),
			Width:  float64(200 + key%200),
			Height: float64(150 + (key>>8)%350),
		}, nil
	})
}

// =============================================================================
// Bubbletea Model
// =============================================================================

// worldPerCellX is how many world units one terminal column covers. Terminal
// cells are roughly twice as tall as wide, hence the separate y scale.
const (
	worldPerCellX = 16.0
	worldPerCellY = 32.0
	panStep       = 128.0
)

var panPalette = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(colorCyan),
	lipgloss.NewStyle().Foreground(colorGreen),
	lipgloss.NewStyle().Foreground(colorYellow),
	lipgloss.NewStyle().Foreground(colorBlue),
	lipgloss.NewStyle().Foreground(colorRed),
	lipgloss.NewStyle().Foreground(colorWhite),
	lipgloss.NewStyle().Foreground(colorGray),
}

type itemsMsg struct {
	items []masonry.Item
	err   error
}

// panModel is the bubbletea model for the pan command.
type panModel struct {
	engine *masonry.Engine
	layout LayoutConfig

	view    masonry.Viewport
	items   []masonry.Item
	cols    int
	rows    int
	loading bool
	err     error
}

func newPanModel(engine *masonry.Engine, layout LayoutConfig) panModel {
	return panModel{
		engine: engine,
		layout: layout,
		view:   masonry.Viewport{X: 0, Y: 0, Width: 1280, Height: 768},
	}
}

func (m panModel) Init() tea.Cmd {
	return m.fetch()
}

// fetch queries the engine for the current viewport off the UI goroutine.
func (m panModel) fetch() tea.Cmd {
	engine, view := m.engine, m.view
	return func() tea.Msg {
		items, err := engine.GetItems(context.Background(), view)
		return itemsMsg{items: items, err: err}
	}
}

func (m panModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = msg.Width
		m.rows = msg.Height - 2 // status bar
		if m.cols > 0 && m.rows > 0 {
			m.view.Width = float64(m.cols) * worldPerCellX
			m.view.Height = float64(m.rows) * worldPerCellY
		}
		m.loading = true
		return m, m.fetch()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.view.X -= panStep
		case "right", "l":
			m.view.X += panStep
		case "up", "k":
			m.view.Y -= panStep
		case "down", "j":
			m.view.Y += panStep
		case "0":
			m.view.X, m.view.Y = 0, 0
		default:
			return m, nil
		}
		m.loading = true
		return m, m.fetch()

	case itemsMsg:
		m.loading = false
		m.items = msg.items
		m.err = msg.err
		return m, nil
	}
	return m, nil
}

func (m panModel) View() string {
	if m.cols <= 0 || m.rows <= 0 {
		return "loading..."
	}

	var b strings.Builder
	for row := 0; row < m.rows; row++ {
		wy := m.view.Y + float64(row)*worldPerCellY
		col := 0
		for col < m.cols {
			wx := m.view.X + float64(col)*worldPerCellX
			it, ok := m.itemAt(wx, wy)
			if !ok {
				b.WriteByte(' ')
				col++
				continue
			}
			// Extend the run while the same item covers the cells.
			run := 1
			for col+run < m.cols {
				next, ok := m.itemAt(m.view.X+float64(col+run)*worldPerCellX, wy)
				if !ok || next.ID != it.ID {
					break
				}
				run++
			}
			style := panPalette[colorIndex(it.ID)]
			b.WriteString(style.Render(strings.Repeat("█", run)))
			col += run
		}
		b.WriteByte('\n')
	}

	status := fmt.Sprintf(" x=%.0f y=%.0f  items=%d  arrows/hjkl pan · 0 origin · q quit",
		m.view.X, m.view.Y, len(m.items))
	if m.loading {
		status += "  …"
	}
	if m.err != nil {
		status = " error: " + m.err.Error()
	}
	b.WriteString(StyleDim.Render(status))
	return b.String()
}

// colorIndex assigns each item id a stable palette slot.
func colorIndex(id string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum64() % uint64(len(panPalette)))
}

// itemAt returns the item covering the world point, if any.
func (m panModel) itemAt(wx, wy float64) (masonry.Item, bool) {
	for _, it := range m.items {
		if wx >= it.X && wx < it.X+it.Width && wy >= it.Y && wy < it.Y+it.Height {
			return it, true
		}
	}
	return masonry.Item{}, false
}
