package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout/force"
	"github.com/matzehuels/forcegraph/pkg/render/nodelink"
)

const (
	defaultFPS    = 30
	minCanvasRows = 5
	minCanvasCols = 20
)

var projections = []nodelink.Projection{nodelink.ProjectXY, nodelink.ProjectXZ, nodelink.ProjectYZ}

// watchCommand creates the watch command that animates a running simulation.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags   layoutFlags
		fps     int
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "watch [graph.json]",
		Short: "Animate a force layout in the terminal",
		Long: `Animate a force layout in the terminal, one iteration per frame.

Keys:
  space  pause or resume
  s      single step while paused
  p      cycle projection (xy, xz, yz)
  q      quit

Nodes nearer to the viewer are drawn heavier. With --output the positions
reached when the animation ends are written as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			opts, err := flags.options(cmd, input)
			if err != nil {
				return err
			}
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			if opts.IsSphere() {
				return errors.New(errors.ErrCodeInvalidInput, "watch animates the force algorithm only")
			}
			if fps <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "fps must be positive, got %d", fps)
			}

			g := opts.Graph
			if g == nil {
				runner, err := c.newRunner(noCache)
				if err != nil {
					return fmt.Errorf("initialize runner: %w", err)
				}
				defer runner.Close()
				if g, err = runner.Generate(cmd.Context(), opts); err != nil {
					return err
				}
			}

			engine, err := force.New(g.Clone(), *opts.Force,
				force.WithSeed(opts.Seed),
				force.WithWorkers(opts.Workers),
				force.WithLogger(log.New(io.Discard)),
			)
			if err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), newWatchModel(engine, time.Second/time.Duration(fps)), output)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&fps, "fps", defaultFPS, "iterations per second")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the final positions to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, m watchModel, output string) error {
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	m = final.(watchModel)

	printInfo("Stopped after %d of %d iterations (%s)", m.iteration, m.total, m.state())
	if output == "" {
		return nil
	}
	if err := graph.WriteGraphFile(m.engine.Graph(), output); err != nil {
		return err
	}
	printFile(output)
	return nil
}

// =============================================================================
// watchModel - bubbletea model stepping the engine
// =============================================================================

type tickMsg time.Time

type watchKeyMap struct {
	Pause      key.Binding
	Step       key.Binding
	Projection key.Binding
	Quit       key.Binding
}

var watchKeys = watchKeyMap{
	Pause: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "pause"),
	),
	Step: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "step"),
	),
	Projection: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "projection"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Step, k.Projection, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type watchModel struct {
	engine   *force.Engine
	interval time.Duration

	iteration  int
	total      int
	paused     bool
	projection int // index into projections

	rows, cols int

	keys watchKeyMap
	help help.Model
	bar  progressbar.Model
}

func newWatchModel(e *force.Engine, interval time.Duration) watchModel {
	return watchModel{
		engine:   e,
		interval: interval,
		total:    e.Config().MaxIterations,
		rows:     20,
		cols:     60,
		keys:     watchKeys,
		help:     help.New(),
		bar:      progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithoutPercentage(), progressbar.WithWidth(30)),
	}
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return m.tick()
}

func (m watchModel) finished() bool {
	return m.iteration >= m.total
}

// step runs one iteration with the same step-then-cool order as Layout.
func (m *watchModel) step() {
	if m.finished() {
		return
	}
	m.engine.Step()
	m.engine.CoolDown(m.iteration)
	m.iteration++
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			if !m.paused && !m.finished() {
				return m, m.tick()
			}
		case key.Matches(msg, m.keys.Step):
			if m.paused {
				m.step()
			}
		case key.Matches(msg, m.keys.Projection):
			m.projection = (m.projection + 1) % len(projections)
		}
	case tea.WindowSizeMsg:
		m.rows = max(msg.Height-6, minCanvasRows)
		m.cols = max(msg.Width-2, minCanvasCols)
		m.help.Width = msg.Width
	case tickMsg:
		if m.paused || m.finished() {
			return m, nil
		}
		m.step()
		return m, m.tick()
	}
	return m, nil
}

// fraction is the share of iterations completed.
func (m watchModel) fraction() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.iteration) / float64(m.total)
}

// state describes the engine for the status line.
func (m watchModel) state() string {
	switch {
	case m.paused:
		return "paused"
	case m.engine.Running():
		return "running"
	}
	return "settled"
}

var (
	canvasBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	nearStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	midStyle     = lipgloss.NewStyle().Foreground(colorGray)
	farStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

func (m watchModel) View() string {
	var b strings.Builder

	proj := projections[m.projection]
	b.WriteString(StyleTitle.Render("forcegraph watch"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d nodes · %d edges · %s", m.engine.Graph().NodeCount(), m.engine.Graph().EdgeCount(), proj)))
	b.WriteString("\n")
	b.WriteString(canvasBorder.Render(m.canvas(proj)))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.fraction()))
	b.WriteString(StyleValue.Render(fmt.Sprintf(" iteration %d/%d", m.iteration, m.total)))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  T=%.3f  k=%.1f  max move %.2f  ", m.engine.Temperature(), m.engine.K(), m.engine.LastMaxMove())))
	b.WriteString(StyleHighlight.Render(m.state()))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))

	return b.String()
}

// canvas plots the projected nodes, scaled to fit the current extent. The
// glyph and shade encode depth in thirds of the depth range.
func (m watchModel) canvas(proj nodelink.Projection) string {
	grid := make([][]string, m.rows)
	for i := range grid {
		grid[i] = make([]string, m.cols)
		for j := range grid[i] {
			grid[i][j] = " "
		}
	}

	g := m.engine.Graph()
	xs := make([]float64, len(g.Nodes))
	ys := make([]float64, len(g.Nodes))
	ds := make([]float64, len(g.Nodes))
	minX, maxX, minY, maxY := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	minD, maxD := math.Inf(1), math.Inf(-1)
	for i, n := range g.Nodes {
		xs[i], ys[i], ds[i] = nodelink.Project(*n.Position, proj)
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
		minD, maxD = math.Min(minD, ds[i]), math.Max(maxD, ds[i])
	}

	for i := range g.Nodes {
		col := scaleTo(xs[i], minX, maxX, m.cols)
		row := m.rows - 1 - scaleTo(ys[i], minY, maxY, m.rows)
		grid[row][col] = depthGlyph(scaleTo(ds[i], minD, maxD, 3))
	}

	lines := make([]string, m.rows)
	for i, row := range grid {
		lines[i] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

// scaleTo maps v in [lo, hi] onto 0..n-1. A degenerate range maps to the middle.
func scaleTo(v, lo, hi float64, n int) int {
	if hi-lo < 1e-9 {
		return n / 2
	}
	i := int((v - lo) / (hi - lo) * float64(n-1))
	return min(max(i, 0), n-1)
}

func depthGlyph(band int) string {
	switch band {
	case 2:
		return nearStyle.Render("●")
	case 1:
		return midStyle.Render("•")
	}
	return farStyle.Render("·")
}
