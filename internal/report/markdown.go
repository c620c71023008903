package report

import (
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"NewsAnalyzer/internal/domain"
)

// MarkdownWriter renders a cluster report as GitHub-flavored markdown.
type MarkdownWriter struct {
	baseWriter
}

func (w *MarkdownWriter) Write(r Report) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("News Cluster Report")
	md.PlainText("")

	exclude := "-"
	if len(r.Query.Exclude) > 0 {
		exclude = strings.Join(r.Query.Exclude, ", ")
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + r.ID + "`"},
			{"Include", strings.Join(r.Query.Include, ", ")},
			{"Exclude", exclude},
			{"Pages", strconv.Itoa(r.Query.Pages)},
			{"Articles", strconv.Itoa(len(r.Articles))},
			{"Status", StatusMessage(r.Status, r.Err)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, r)

	for _, c := range r.Clusters {
		if c.Noise() && len(c.Articles) == 0 {
			continue
		}
		md.H2(clusterName(c) + " (" + strconv.Itoa(len(c.Articles)) + ")")
		md.PlainText("")

		rows := make([][]string, 0, len(c.Articles))
		for _, a := range c.Articles {
			rows = append(rows, []string{
				"[" + escapeCell(a.Title) + "](" + a.DetailURL + ")",
				escapeCell(a.Source),
				a.Timestamp,
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Title", "Source", "Published"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return md.Build()
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, r Report) {
	switch r.Status {
	case domain.StatusAborted:
		md.Warningf("The run was stopped before clustering finished.")
	case domain.StatusFailed:
		md.Cautionf("The run failed: %v", r.Err)
	default:
		if len(r.Articles) == 0 {
			md.Note("No articles matched the query.")
		} else {
			md.Tip(strconv.Itoa(clusterCount(r.Clusters)) + " topic clusters found.")
		}
	}
	md.PlainText("")
}

func clusterCount(clusters []domain.Cluster) int {
	n := 0
	for _, c := range clusters {
		if !c.Noise() {
			n++
		}
	}
	return n
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
