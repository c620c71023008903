package usecase

import "NewsAnalyzer/internal/domain"

// Unique keeps the first occurrence of every detail URL, preserving order.
// Refs without a detail URL are dropped. Unique is idempotent.
func Unique(refs []domain.ResultRef) []domain.ResultRef {
	seen := make(map[string]struct{}, len(refs))
	out := make([]domain.ResultRef, 0, len(refs))
	for _, ref := range refs {
		key := ref.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// Chronological reverses newest-first page order into oldest-first order.
// Applying it twice yields the input order.
func Chronological(refs []domain.ResultRef) []domain.ResultRef {
	out := make([]domain.ResultRef, len(refs))
	for i, ref := range refs {
		out[len(refs)-1-i] = ref
	}
	return out
}

// Deduplicate merges per-page lists (in page order) into one unique,
// oldest-first list.
func Deduplicate(pages [][]domain.ResultRef) []domain.ResultRef {
	var merged []domain.ResultRef
	for _, page := range pages {
		merged = append(merged, page...)
	}
	return Chronological(Unique(merged))
}
