package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/color"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/metadata"
)

// maxExamples is the number of distinct values shown per column.
const maxExamples = 3

// columnsCommand lists the columns of a mapping file.
func (c *CLI) columnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns [mapping]",
		Short: "List the metadata columns of a mapping file",
		Long: `List the metadata columns of a mapping file with their inferred type,
color scale and number of distinct values. Taxonomy strings appear as one
"Taxa [Level]" column per rank.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.readMapping(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderColumns(t))
			return nil
		},
	}
}

// legendCommand prints the legend of one column.
func (c *CLI) legendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "legend [mapping] [column]",
		Short: "Print the color legend of a metadata column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.readMapping(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			l, ok := legendFor(t, args[1])
			if !ok {
				return errors.New(errors.ErrCodeUnknownColorColumn,
					"no metadata column %q (have %s)", args[1], strings.Join(t.Columns(), ", "))
			}
			writeLegend(cmd.OutOrStdout(), l)
			return nil
		},
	}
}

// readMapping reads and parses a mapping file or URL.
func (c *CLI) readMapping(ctx context.Context, src string) (*metadata.Table, error) {
	runner, err := c.newRunner(ctx, false, "")
	if err != nil {
		return nil, err
	}
	defer runner.Close()
	text, err := runner.Loader().Read(ctx, src, false)
	if err != nil {
		return nil, err
	}
	return metadata.Parse(strings.NewReader(text))
}

// renderColumns draws the column summary table.
func renderColumns(t *metadata.Table) string {
	scales := color.Scales(t)
	rows := make([][]string, 0, len(t.Columns()))
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		distinct := metadata.AutoSort(col.RawValues(), true)
		examples := distinct.Strings
		if len(examples) > maxExamples {
			examples = append(examples[:maxExamples:maxExamples], "…")
		}
		rows = append(rows, []string{
			name,
			metadata.ColumnKind(col).String(),
			scales[name].Kind().String(),
			strconv.Itoa(distinct.Len()),
			strings.Join(examples, ", "),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Column", "Type", "Scale", "Values", "Examples").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle.Padding(0, 1)
			}
			s := lipgloss.NewStyle().Padding(0, 1)
			switch col {
			case 0:
				return s.Foreground(colorCyan)
			case 4:
				return s.Foreground(colorDim)
			}
			return s
		}).
		Render()
}

// writeLegend prints one swatch line per legend entry.
func writeLegend(w io.Writer, l color.Legend) {
	kind := l.Kind.String()
	if l.Colorbar {
		kind = "colorbar"
	}
	fmt.Fprintln(w, StyleTitle.Render(l.Title)+" "+StyleDim.Render("("+kind+")"))
	for _, e := range l.Entries {
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(e.Color)).Render("   ")
		fmt.Fprintf(w, "  %s %s %s\n", swatch, StyleDim.Render(e.Color), e.Label)
	}
}

// legendFor returns the legend of column name in t, or false.
func legendFor(t *metadata.Table, name string) (color.Legend, bool) {
	col, ok := t.Column(name)
	if !ok {
		return color.Legend{}, false
	}
	return color.NewLegend(col.Name, col, color.ForColumn(col)), true
}
