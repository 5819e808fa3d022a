package text

// LCSLength returns the length of the longest common subsequence of a and b.
// Memory is O(min(len(a), len(b))).
func LCSLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// TokenF1 is the F1 score between the token sets of prediction and reference.
func TokenF1(prediction, reference string) float64 {
	pred := set(Words(prediction))
	ref := set(Words(reference))
	if len(pred) == 0 || len(ref) == 0 {
		if len(pred) == 0 && len(ref) == 0 {
			return 1
		}
		return 0
	}
	common := 0
	for w := range pred {
		if _, ok := ref[w]; ok {
			common++
		}
	}
	if common == 0 {
		return 0
	}
	precision := float64(common) / float64(len(pred))
	recall := float64(common) / float64(len(ref))
	return 2 * precision * recall / (precision + recall)
}

// ExactMatch reports whether prediction and reference are equal after Normalize.
func ExactMatch(prediction, reference string) bool {
	return Normalize(prediction) == Normalize(reference)
}

func set(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
