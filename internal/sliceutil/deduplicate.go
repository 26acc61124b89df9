// Package sliceutil holds small generic slice helpers.
package sliceutil

// Deduplicate keeps the first item for each key, preserving order. The
// result is never nil.
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	result := make([]T, 0, len(items))
	seen := make(map[K]struct{}, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// Head returns at most the first n items. n <= 0 keeps them all.
func Head[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
