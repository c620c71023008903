package report

import (
	"encoding/json"
)

// JSONWriter emits one indented JSON document per report.
type JSONWriter struct {
	baseWriter
}

type jsonReport struct {
	ID       string        `json:"id"`
	Include  []string      `json:"include"`
	Exclude  []string      `json:"exclude,omitempty"`
	Pages    int           `json:"pages"`
	Status   string        `json:"status"`
	Message  string        `json:"message"`
	Error    string        `json:"error,omitempty"`
	Articles int           `json:"articleCount"`
	Clusters []jsonCluster `json:"clusters"`
}

type jsonCluster struct {
	ID       int           `json:"id"`
	Noise    bool          `json:"noise"`
	Articles []jsonArticle `json:"articles"`
}

type jsonArticle struct {
	Title     string `json:"title"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	OriginURL string `json:"originUrl,omitempty"`
	DetailURL string `json:"detailUrl"`
}

func (w *JSONWriter) Write(r Report) error {
	out := jsonReport{
		ID:       r.ID,
		Include:  r.Query.Include,
		Exclude:  r.Query.Exclude,
		Pages:    r.Query.Pages,
		Status:   string(r.Status),
		Message:  StatusMessage(r.Status, r.Err),
		Articles: len(r.Articles),
		Clusters: make([]jsonCluster, 0, len(r.Clusters)),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}

	for _, c := range r.Clusters {
		jc := jsonCluster{ID: c.ID, Noise: c.Noise(), Articles: make([]jsonArticle, 0, len(c.Articles))}
		for _, a := range c.Articles {
			jc.Articles = append(jc.Articles, jsonArticle{
				Title:     a.Title,
				Source:    a.Source,
				Timestamp: a.Timestamp,
				OriginURL: a.OriginURL,
				DetailURL: a.DetailURL,
			})
		}
		out.Clusters = append(out.Clusters, jc)
	}

	enc := json.NewEncoder(w.output)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
