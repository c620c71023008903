package domain

import "time"

// ResultRef is a lightweight reference to one search-result listing item.
// DetailURL is the dedup key; refs without one never leave the page parser.
type ResultRef struct {
	Title     string
	Source    string
	OriginURL string
	DetailURL string
}

// Key returns the identity used for deduplication.
func (r ResultRef) Key() string {
	return r.DetailURL
}

// Document is the normalized body of an article: sentences of words.
type Document struct {
	Sentences [][]string
}

// NewDocument copies the given sentences, dropping empty ones.
func NewDocument(sentences [][]string) Document {
	out := make([][]string, 0, len(sentences))
	for _, s := range sentences {
		if len(s) == 0 {
			continue
		}
		words := make([]string, len(s))
		copy(words, s)
		out = append(out, words)
	}
	return Document{Sentences: out}
}

// WordCount returns the total number of tokens.
func (d Document) WordCount() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s)
	}
	return n
}

// Empty reports whether the document has no sentences.
func (d Document) Empty() bool {
	return len(d.Sentences) == 0
}

// Article is a fully extracted detail page plus its embedding.
type Article struct {
	Title     string
	Source    string
	Timestamp string
	OriginURL string
	DetailURL string
	Document  Document
	Vector    []float64
	FetchedAt time.Time
}

// NewArticle builds an article from its listing reference and extracted content.
func NewArticle(ref ResultRef, timestamp string, doc Document) Article {
	return Article{
		Title:     ref.Title,
		Source:    ref.Source,
		Timestamp: timestamp,
		OriginURL: ref.OriginURL,
		DetailURL: ref.DetailURL,
		Document:  doc,
		FetchedAt: time.Now().UTC(),
	}
}

// Equal compares articles by detail URL only.
func (a Article) Equal(other Article) bool {
	return a.DetailURL == other.DetailURL
}

// Embedded reports whether a vector has been assigned.
func (a Article) Embedded() bool {
	return len(a.Vector) > 0
}

// Cluster is one group of the final partition. ID is NoiseLabel for the noise group.
type Cluster struct {
	ID       int
	Articles []Article
}

// NoiseLabel marks articles that belong to no dense region.
const NoiseLabel = -1

// Noise reports whether the group holds the unclustered articles.
func (c Cluster) Noise() bool {
	return c.ID == NoiseLabel
}
