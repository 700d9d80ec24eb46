package cid

// Patterns parses symbols left to right, extending a candidate one symbol at
// a time and committing it as soon as it has not been seen before. A trailing
// candidate that never became novel is committed as a final pattern. The
// patterns are returned in commit order.
func Patterns(symbols string) []string {
	seen := make(map[string]struct{})
	var patterns []string
	start := 0
	for end := 1; end <= len(symbols); end++ {
		candidate := symbols[start:end]
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		patterns = append(patterns, candidate)
		start = end
	}
	if start < len(symbols) {
		patterns = append(patterns, symbols[start:])
	}
	return patterns
}

// Count returns the number of patterns Patterns would commit.
func Count(symbols string) int {
	seen := make(map[string]struct{})
	count := 0
	start := 0
	for end := 1; end <= len(symbols); end++ {
		candidate := symbols[start:end]
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		count++
		start = end
	}
	if start < len(symbols) {
		count++
	}
	return count
}
