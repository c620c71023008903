package report

import (
	"bufio"
	"fmt"
)

// TextWriter prints clusters as indented plain text.
type TextWriter struct {
	baseWriter
}

func (w *TextWriter) Write(r Report) error {
	out := bufio.NewWriter(w.output)

	fmt.Fprintf(out, "%s %s\n", StatusMessage(r.Status, r.Err), r.Query.Terms())
	if r.Err != nil {
		fmt.Fprintf(out, "  %v\n", r.Err)
	}

	for _, c := range r.Clusters {
		if c.Noise() && len(c.Articles) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s (%d)\n", clusterName(c), len(c.Articles))
		for _, a := range c.Articles {
			fmt.Fprintf(out, "  - %s\n    %s\n", articleLine(a), a.DetailURL)
		}
	}

	return out.Flush()
}
