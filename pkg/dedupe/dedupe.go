// Package dedupe collapses duplicate natural keys in a record slice before
// the records reach storage.
package dedupe

// ByKey returns records with at most one element per distinct key, preserving
// the relative order of first occurrence, plus the number of dropped
// duplicates. Later records sharing a key are dropped, not merged
// (first-seen-wins).
func ByKey[T any, K comparable](records []T, key func(T) K) ([]T, int) {
	if len(records) == 0 {
		return records, 0
	}

	seen := make(map[K]struct{}, len(records))
	kept := make([]T, 0, len(records))
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}
