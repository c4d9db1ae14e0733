package scoring

import (
	"slices"
	"strings"
)

// maxLCSCells bounds the DP table of [wordLCS]. Larger inputs are aligned
// greedily by [wordGreedy].
const maxLCSCells = 1 << 20

// wordPair maps a word index in the expected sequence to the matching index
// in the predicted sequence.
type wordPair struct {
	exp  int
	pred int
}

// align returns a common subsequence of a and b as index pairs in ascending
// order. It is the longest one unless the inputs are too large for the DP
// table.
func align(a, b []string) []wordPair {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	if (len(a)+1)*(len(b)+1) > maxLCSCells {
		return wordGreedy(a, b)
	}
	return wordLCS(a, b)
}

// wordGreedy matches each word of a to its next occurrence in b after the
// previous match. Memory is linear in len(b).
func wordGreedy(a, b []string) []wordPair {
	at := make(map[string][]int)
	for j, w := range b {
		at[w] = append(at[w], j)
	}
	var pairs []wordPair
	last := -1
	for i, w := range a {
		pos := at[w]
		k, _ := slices.BinarySearch(pos, last+1)
		if k < len(pos) {
			last = pos[k]
			pairs = append(pairs, wordPair{exp: i, pred: last})
		}
	}
	return pairs
}

// wordLCS returns the longest common subsequence of a and b as index pairs in
// ascending order using an O(m×n) table.
func wordLCS(a, b []string) []wordPair {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return nil
	}

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			switch {
			case a[i-1] == b[j-1]:
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	k := dp[m][n]
	if k == 0 {
		return nil
	}
	pairs := make([]wordPair, k)
	for i, j := m, n; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			k--
			pairs[k] = wordPair{exp: i - 1, pred: j - 1}
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	return pairs
}

// highlight aligns the normalized expected and predicted texts word by word.
// Expected words that survive the alignment are correct, the rest incorrect.
// A word never appears in both lists.
func highlight(normExpected, normPredicted string) Highlights {
	exp := strings.Fields(normExpected)
	pred := strings.Fields(normPredicted)

	matched := make([]bool, len(exp))
	for _, p := range align(exp, pred) {
		matched[p.exp] = true
	}

	h := Highlights{Correct: []string{}, Incorrect: []string{}}
	seen := make(map[string]bool, len(exp))
	for i, w := range exp {
		if matched[i] && !seen[w] {
			seen[w] = true
			h.Correct = append(h.Correct, w)
		}
	}
	for i, w := range exp {
		if !matched[i] && !seen[w] {
			seen[w] = true
			h.Incorrect = append(h.Incorrect, w)
		}
	}
	return h
}
