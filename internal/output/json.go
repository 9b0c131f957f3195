package output

import (
	"encoding/json"
	"io"

	appanalysis "github.com/bryanwahyu/pyaudit/internal/application/analysis"
	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// JSONFormatter writes the same documents the HTTP API returns.
type JSONFormatter struct{}

func (JSONFormatter) Format(batch *domain.BatchReport, w io.Writer) error {
	return encode(w, batch)
}

func (JSONFormatter) FormatDependencies(rep *appanalysis.DependencyReport, w io.Writer) error {
	return encode(w, rep)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
