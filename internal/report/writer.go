package report

import (
	"fmt"
	"io"
	"strings"

	"NewsAnalyzer/internal/domain"
)

// Format names an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Report is the displayable outcome of one run.
type Report struct {
	ID       string
	Query    domain.SearchQuery
	Status   domain.RunStatus
	Err      error
	Articles []domain.Article
	Clusters []domain.Cluster
}

// Writer renders reports in one format.
type Writer interface {
	Write(r Report) error
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// New returns the writer for format.
func New(format Format, output io.Writer) (Writer, error) {
	base := baseWriter{output: output}
	switch Format(strings.ToLower(string(format))) {
	case FormatText, "":
		return &TextWriter{baseWriter: base}, nil
	case FormatJSON:
		return &JSONWriter{baseWriter: base}, nil
	case FormatMarkdown, "md":
		return &MarkdownWriter{baseWriter: base}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// StatusMessage is the short user-facing line for a terminal status.
func StatusMessage(status domain.RunStatus, err error) string {
	switch {
	case status == domain.StatusDone:
		return "Done!"
	case status == domain.StatusAborted:
		return "Stopped!"
	case domain.IsConnectivity(err):
		return "Disconnected!"
	case domain.IsModel(err):
		return "Invalid model!"
	default:
		return "Failed!"
	}
}

// clusterName labels a group for display.
func clusterName(c domain.Cluster) string {
	if c.Noise() {
		return "Unclustered"
	}
	return fmt.Sprintf("Cluster %d", c.ID+1)
}

func articleLine(a domain.Article) string {
	var b strings.Builder
	b.WriteString(a.Title)
	if a.Source != "" {
		b.WriteString(" - ")
		b.WriteString(a.Source)
	}
	if a.Timestamp != "" {
		b.WriteString(" (")
		b.WriteString(a.Timestamp)
		b.WriteString(")")
	}
	return b.String()
}
