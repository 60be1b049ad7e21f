package datasets

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// Stats summarizes a dataset: its length and the recursive structural
// classification of a sample item's payloads. The classifications are trees
// of Go type names, see nestedTypes.
type Stats struct {
	Length      int
	DataTypes   any
	TargetTypes any
}

// maxDescribeWidth caps auto-detected terminal widths.
const maxDescribeWidth = 150

// numDescribeExamples is how many items Describe shows.
const numDescribeExamples = 5

var (
	describeTitleStyle   = lipgloss.NewStyle().Bold(true)
	describeSectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	describeEntryStyle   = lipgloss.NewStyle().PaddingLeft(2)
	describeCellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// statsOf implements Stats for every variant. An empty dataset reports its
// length and nothing else.
func statsOf(ds Dataset) (Stats, error) {
	stats := Stats{Length: ds.Len()}
	if stats.Length == 0 {
		return stats, nil
	}
	sample, err := ds.At(0)
	if err != nil {
		return Stats{}, err
	}
	stats.DataTypes = nestedTypes(sample.Data)
	stats.TargetTypes = nestedTypes(sample.Target)
	return stats, nil
}

// describeDataset renders a human-readable summary: name, stats and a table
// with the first few examples. Width <= 0 detects the terminal width, capped
// at maxDescribeWidth, falling back to 80 off-terminal.
func describeDataset(ds Dataset, w io.Writer, width int) error {
	if width <= 0 {
		width = 80
		if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && cols > 0 {
			width = min(cols, maxDescribeWidth)
		}
	}

	stats, err := ds.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, describeTitleStyle.Render(ds.Name()+":"))

	fmt.Fprintln(w, describeSectionStyle.Render("Stats:"))
	fmt.Fprintln(w, describeEntryStyle.Render(
		fmt.Sprintf("length: %s", humanize.Comma(int64(stats.Length)))))
	if stats.Length == 0 {
		return nil
	}
	fmt.Fprintln(w, describeEntryStyle.Render(
		truncateTo(fmt.Sprintf("data types: %s", formatTypes(stats.DataTypes)), width-2)))
	fmt.Fprintln(w, describeEntryStyle.Render(
		truncateTo(fmt.Sprintf("target types: %s", formatTypes(stats.TargetTypes)), width-2)))
	if tasks, err := ds.Tasks(); err == nil && tasks != nil {
		fmt.Fprintln(w, describeEntryStyle.Render(
			truncateTo(fmt.Sprintf("tasks: %v", tasks), width-2)))
	}

	examples, err := ds.Examples(numDescribeExamples)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, describeSectionStyle.Render("Examples:"))
	// Leave room for borders and padding of the 3-column table.
	cellWidth := max((width-10)/3, 8)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(_, _ int) lipgloss.Style { return describeCellStyle }).
		Headers("id", "data", "target")
	for _, it := range examples {
		table.Row(
			truncateTo(it.ID, cellWidth),
			truncateTo(fmt.Sprintf("%v", it.Data), cellWidth),
			truncateTo(fmt.Sprintf("%v", it.Target), cellWidth))
	}
	fmt.Fprintln(w, table.Render())
	return nil
}

// formatTypes renders a nestedTypes tree with deterministic mapping order.
func formatTypes(tree any) string {
	switch typed := tree.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := "{"
		for ii, key := range keys {
			if ii > 0 {
				out += ", "
			}
			out += key + ": " + formatTypes(typed[key])
		}
		return out + "}"
	case []any:
		if len(typed) == 0 {
			return "[]"
		}
		return "[" + formatTypes(typed[0]) + "]"
	default:
		return fmt.Sprintf("%v", tree)
	}
}

// truncateTo cuts text to at most width runes, marking the cut with "…".
func truncateTo(text string, width int) string {
	if width <= 1 {
		width = 2
	}
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
