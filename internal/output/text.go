package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	appanalysis "github.com/bryanwahyu/pyaudit/internal/application/analysis"
	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// TextFormatter renders results as human-readable text
type TextFormatter struct {
	config Config
}

func NewTextFormatter(config Config) *TextFormatter {
	if config.HighComplexity <= 0 {
		config.HighComplexity = 10
	}
	return &TextFormatter{config: config}
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
)

// paint writes with c only when color output is on.
func (f *TextFormatter) paint(w io.Writer, c *color.Color, format string, args ...any) {
	if f.config.Color {
		c.Fprintf(w, format, args...)
		return
	}
	fmt.Fprintf(w, format, args...)
}

func (f *TextFormatter) Format(batch *domain.BatchReport, w io.Writer) error {
	f.writeHeader(batch, w)
	if err := f.writeTable(batch, w); err != nil {
		return err
	}
	for i := range batch.Files {
		f.writeFile(&batch.Files[i], w)
	}
	f.writeFooter(batch, w)
	return nil
}

func (f *TextFormatter) writeHeader(batch *domain.BatchReport, w io.Writer) {
	separator := strings.Repeat("=", 70)
	fmt.Fprintf(w, "\n%s\n", separator)
	fmt.Fprintf(w, "PYTHON CODE ANALYSIS\n")
	fmt.Fprintf(w, "%s\n", separator)
	fmt.Fprintf(w, "Batch:    %s\n", batch.ID)
	fmt.Fprintf(w, "Date:     %s\n", batch.StartedAt.Format(time.RFC1123))
	if !batch.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Duration: %v\n", batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))
	}
	if batch.ArchiveURL != "" {
		fmt.Fprintf(w, "Archive:  %s\n", batch.ArchiveURL)
	}
	fmt.Fprintf(w, "\n")
}

func (f *TextFormatter) writeTable(batch *domain.BatchReport, w io.Writer) error {
	rows := make([][]string, 0, len(batch.Files))
	for _, r := range batch.Files {
		status := "ok"
		if r.Failed() {
			status = "failed"
		}
		rows = append(rows, []string{
			r.FileName,
			strconv.Itoa(r.Stats.LineCount),
			strconv.Itoa(r.Stats.CommentCount),
			strconv.Itoa(r.Stats.ComplexFunctions),
			strconv.Itoa(r.Stats.HighComplexityFunctions),
			strconv.Itoa(r.Stats.StyleIssues),
			strconv.Itoa(r.Stats.SecurityIssues),
			status,
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header("File", "Lines", "Docstrings", "Functions", "Complex", "Style", "Security", "Status")
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("table rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintf(w, "\n")
	return nil
}

func (f *TextFormatter) writeFile(r *domain.FileReport, w io.Writer) {
	fmt.Fprintf(w, "%s\n", r.FileName)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))

	for _, sec := range []struct{ name, err string }{
		{"style", r.Style.Error},
		{"complexity", r.Complexity.Error},
		{"security", r.Security.Error},
		{"comments", r.Comments.Error},
	} {
		if sec.err != "" {
			f.paint(w, errorColor, "  %-11s %s\n", sec.name+":", sec.err)
		}
	}

	sev := r.Stats.SecuritySeverity
	switch {
	case sev.High > 0:
		f.paint(w, errorColor, "  Security:   %d high, %d medium, %d low\n", sev.High, sev.Medium, sev.Low)
	case sev.Total > 0:
		f.paint(w, warningColor, "  Security:   %d high, %d medium, %d low\n", sev.High, sev.Medium, sev.Low)
	}

	fns := append([]domain.FunctionComplexity(nil), r.Complexity.Functions...)
	sort.SliceStable(fns, func(i, j int) bool { return fns[i].Complexity > fns[j].Complexity })
	for _, fn := range fns {
		if fn.Complexity < f.config.HighComplexity {
			break
		}
		f.paint(w, warningColor, "  Complex:    %s (line %d) = %d\n", fn.Qualified, fn.Line, fn.Complexity)
	}

	if r.Performance.Error != "" {
		f.paint(w, errorColor, "  Perf:       %s\n", r.Performance.Note)
	} else {
		f.paint(w, infoColor, "  Perf:       %s\n", r.Performance.Note)
	}

	if f.config.Verbose {
		writeBlock(w, "flake8", r.Style.Output)
		writeBlock(w, "bandit", r.Security.Output)
		if len(r.Comments.Comments) > 0 {
			writeBlock(w, "docstrings", strings.Join(r.Comments.Comments, "\n\n"))
		}
	}
	fmt.Fprintf(w, "\n")
}

func writeBlock(w io.Writer, title, body string) {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return
	}
	fmt.Fprintf(w, "  [%s]\n", title)
	for _, line := range strings.Split(body, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
}

func (f *TextFormatter) writeFooter(batch *domain.BatchReport, w io.Writer) {
	switch DetermineExitCode(batch) {
	case 0:
		f.paint(w, successColor, "No issues found.\n")
	case 1:
		f.paint(w, warningColor, "Findings reported; see the checklist for next steps.\n")
	default:
		f.paint(w, errorColor, "Failures or high severity findings reported.\n")
	}
}

func (f *TextFormatter) FormatDependencies(rep *appanalysis.DependencyReport, w io.Writer) error {
	separator := strings.Repeat("=", 70)
	fmt.Fprintf(w, "\n%s\nDEPENDENCY AUDIT (%s)\n%s\n", separator, rep.Tool, separator)
	fmt.Fprintf(w, "Date:     %s\n\n", rep.CheckedAt.Format(time.RFC1123))
	if rep.Error != "" {
		f.paint(w, errorColor, "%s\n", rep.Error)
	}
	if out := strings.TrimRight(rep.Output, "\n"); out != "" {
		fmt.Fprintf(w, "%s\n", out)
	}
	fmt.Fprintf(w, "\n")
	f.paint(w, infoColor, "%s\n", rep.Advice)
	return nil
}
