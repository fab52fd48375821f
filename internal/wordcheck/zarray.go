package wordcheck

// ZArray computes, for each position of s, the length of the longest
// prefix of s that matches the substring starting at that position
// (Z[0] is left at 0 by convention).
func ZArray(s string) []int {
	n := len(s)
	z := make([]int, n)
	l, r := 0, 0

	for i := 1; i < n; i++ {
		if i > r {
			l, r = i, i
			for r < n && s[r-l] == s[r] {
				r++
			}
			z[i] = r - l
			r--
		} else {
			k := i - l
			if z[k] < r-i+1 {
				z[i] = z[k]
			} else {
				l = i
				for r < n && s[r-l] == s[r] {
					r++
				}
				z[i] = r - l
				r--
			}
		}
	}
	return z
}

// sentinel joins pattern and text in containsPattern.
const sentinel = "\x00"

// containsPattern reports whether pattern occurs as a contiguous
// substring of text, in linear time via the Z-array of
// pattern + sentinel + text. An empty pattern matches everything.
func containsPattern(text, pattern string) bool {
	if len(pattern) == 0 {
		return true
	}
	if len(pattern) > len(text) {
		return false
	}

	// A text that itself contains the sentinel byte can push a match run
	// past len(pattern), so the comparison must not demand equality.
	z := ZArray(pattern + sentinel + text)
	for i := len(pattern) + 1; i < len(z); i++ {
		if z[i] >= len(pattern) {
			return true
		}
	}
	return false
}
