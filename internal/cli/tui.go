package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/session"
)

// Option steps of the interactive picker.
const (
	radiusStep     = 1.0
	separationStep = 2.0
)

var (
	tuiKeyStyle    = lipgloss.NewStyle().Foreground(colorCyan)
	tuiLabelStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(20)
	tuiChangeStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	tuiBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// tuiCommand creates the interactive option picker.
func (c *CLI) tuiCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "tui [tree]",
		Short: "Pick layout and style options interactively",
		Long: `Pick layout and style options interactively.

Every change rewrites the SVG output and reports whether the tree was laid
out again (relayout) or only redrawn (restyle).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Tree = args[0]
			if output == "" {
				output = basePath("", opts.Tree) + ".svg"
			}
			return c.runTUI(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "SVG file rewritten on each change (default: <tree>.svg)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd, &opts)
	addStyleFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runTUI(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	store, err := newCache(ctx, noCache, "")
	if err != nil {
		return err
	}
	// Log lines would tear the alternate screen.
	quiet := log.NewWithOptions(io.Discard, log.Options{})
	runner := pipeline.NewRunner(store, nil, quiet)
	defer runner.Close()
	opts.Logger = quiet

	sess, err := session.New(runner, opts, 0)
	if err != nil {
		return err
	}
	spinner := newSpinnerWithContext(ctx, "Loading "+opts.Source()+"...")
	spinner.Start()
	err = sess.Load(ctx)
	spinner.Stop()
	if err != nil {
		return err
	}

	m := newTreeModel(ctx, sess, output)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return err
	}
	if fm, ok := final.(treeModel); ok && fm.renders > 0 {
		printSuccess("Saved %s", output)
	}
	return nil
}

// =============================================================================
// treeModel - Interactive option picker
// =============================================================================

// renderedMsg reports the outcome of one apply-and-render round.
type renderedMsg struct {
	change   session.Change
	bytes    int
	duration time.Duration
	err      error
}

// treeModel is the bubbletea model of the option picker.
type treeModel struct {
	ctx     context.Context
	sess    *session.Session
	output  string
	columns []string

	busy     bool
	last     renderedMsg
	renders  int
	quitting bool
}

func newTreeModel(ctx context.Context, sess *session.Session, output string) treeModel {
	m := treeModel{ctx: ctx, sess: sess, output: output}
	if in := sess.Input(); in != nil {
		m.columns = in.Table.Columns()
	}
	return m
}

// Init renders the starting options once.
func (m treeModel) Init() tea.Cmd {
	return m.apply(m.sess.Options())
}

func (m treeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case renderedMsg:
		m.busy = false
		m.last = msg
		if msg.err == nil {
			m.renders++
		}
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "ctrl+c" || key == "esc" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		next, ok := m.edit(key, m.sess.Options())
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.apply(next)
	}
	return m, nil
}

// edit returns opts changed by key, or false when key is not bound.
func (m treeModel) edit(key string, opts pipeline.Options) (pipeline.Options, bool) {
	switch key {
	case "t":
		if opts.TreeType == layout.TreeTypeRadial {
			opts.TreeType = layout.TreeTypeRectangular
		} else {
			opts.TreeType = layout.TreeTypeRadial
		}
	case "b":
		opts.SkipBranchLengthScaling = !opts.SkipBranchLengthScaling
	case "+", "=":
		opts.LeafRadius = min(opts.LeafRadius+radiusStep, pipeline.MaxLeafRadius)
	case "-":
		opts.LeafRadius = max(opts.LeafRadius-radiusStep, pipeline.InteractiveMinLeafRadius)
	case "]":
		opts.MinLeafSeparation = min(opts.MinLeafSeparation+separationStep, pipeline.InteractiveMaxLeafSeparation)
	case "[":
		opts.MinLeafSeparation = max(opts.MinLeafSeparation-separationStep, pipeline.InteractiveMinLeafSeparation)
	case "l":
		opts.SkipLabels = !opts.SkipLabels
	case "d":
		opts.SkipDistanceLabels = !opts.SkipDistanceLabels
	case "r":
		opts.HideRuler = !opts.HideRuler
	case "c":
		opts.LeafColorColumn = cycleColumn(m.columns, opts.LeafColorColumn)
	case "g":
		opts.BackgroundColorColumn = cycleColumn(m.columns, opts.BackgroundColorColumn)
	default:
		return opts, false
	}
	return opts, true
}

// cycleColumn returns the column after current, wrapping through "none".
func cycleColumn(columns []string, current string) string {
	if len(columns) == 0 {
		return ""
	}
	if current == "" {
		return columns[0]
	}
	for i, c := range columns {
		if c == current && i+1 < len(columns) {
			return columns[i+1]
		}
	}
	return ""
}

// apply changes the session options and rewrites the SVG file.
func (m treeModel) apply(next pipeline.Options) tea.Cmd {
	ctx, sess, output := m.ctx, m.sess, m.output
	return func() tea.Msg {
		start := time.Now()
		change, err := sess.Apply(ctx, next)
		if err != nil {
			return renderedMsg{err: err}
		}
		data, err := sess.Render(ctx, pipeline.FormatSVG)
		if err != nil {
			return renderedMsg{change: change, err: err}
		}
		if output != "" {
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return renderedMsg{change: change, err: err}
			}
		}
		return renderedMsg{change: change, bytes: len(data), duration: time.Since(start)}
	}
}

func (m treeModel) View() string {
	if m.quitting {
		return ""
	}
	opts := m.sess.Options()
	var b strings.Builder

	b.WriteString(StyleTitle.Render("phylogram"))
	b.WriteString(" " + StyleDim.Render(opts.Source()))
	b.WriteString("\n\n")

	rows := []struct{ key, label, value string }{
		{"t", "tree type", opts.TreeType},
		{"b", "branch lengths", onOff(!opts.SkipBranchLengthScaling)},
		{"-/+", "leaf radius", fmt.Sprintf("%g", opts.LeafRadius)},
		{"[/]", "leaf separation", fmt.Sprintf("%g", opts.MinLeafSeparation)},
		{"l", "labels", onOff(!opts.SkipLabels)},
		{"d", "distance labels", onOff(!opts.SkipDistanceLabels)},
		{"r", "ruler", onOff(!opts.HideRuler)},
		{"c", "leaf color", orNone(opts.LeafColorColumn)},
		{"g", "background", orNone(opts.BackgroundColorColumn)},
	}
	var lines []string
	for _, r := range rows {
		lines = append(lines, tuiKeyStyle.Width(5).Render(r.key)+tuiLabelStyle.Render(r.label)+StyleValue.Render(r.value))
	}
	b.WriteString(tuiBoxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(StyleDim.Render("rendering..."))
	case m.last.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + errors.UserMessage(m.last.err))
	case m.renders > 0:
		b.WriteString(tuiChangeStyle.Render(m.last.change.String()))
		b.WriteString(StyleDim.Render(fmt.Sprintf("  %s  %d bytes  %s",
			m.output, m.last.bytes, m.last.duration.Round(time.Millisecond))))
	}
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render("q quit"))
	return b.String()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
