// Package textmatch validates that extracted passages genuinely occur in the
// source text, tolerating the character noise OCR and LLM copying introduce.
package textmatch

import (
	"sort"
	"strings"
)

const (
	// BiggestAllowedGap is how many characters of cleaned source text two
	// matching runs may be apart and still count as one contiguous span.
	BiggestAllowedGap = 100
	// SimilarityThreshold is the minimum span/subset length ratio to accept.
	SimilarityThreshold = 0.90
)

type matchBlock struct {
	a    int
	b    int
	size int
}

// IsValidSubset reports whether subset occurs in text, after stripping case
// and non-alphanumerics, allowing gaps of up to BiggestAllowedGap characters
// between matching runs. A subset that cleans to nothing is invalid.
func IsValidSubset(text, subset string) bool {
	subsetClean := clean(subset)
	if subsetClean == "" {
		return false
	}
	return bestSpanRatio(clean(text), subsetClean) >= SimilarityThreshold
}

// SubsetRatio returns the best contiguous-span ratio for logging and
// threshold checks. Zero when the subset cleans to nothing.
func SubsetRatio(text, subset string) float64 {
	subsetClean := clean(subset)
	if subsetClean == "" {
		return 0
	}
	return bestSpanRatio(clean(text), subsetClean)
}

// bestSpanRatio chains matching runs whose source-side starts fall within the
// allowed gap of the span so far, then scores the chain with the most matched
// characters against the subset length. Gap characters never count as
// matched, so scattered single-character noise cannot push a chain over the
// threshold.
func bestSpanRatio(textClean, subsetClean string) float64 {
	blocks := matchingBlocks(textClean, subsetClean)

	best := 0
	currIdx := 0
	for currIdx < len(blocks) {
		curr := blocks[currIdx]
		end := curr.a + curr.size
		matched := curr.size
		currIdx++
		for endIdx := currIdx; endIdx < len(blocks); endIdx++ {
			next := blocks[endIdx]
			if next.size > 0 && next.a <= end+BiggestAllowedGap {
				end = next.a + next.size
				matched += next.size
				currIdx = endIdx
			}
		}
		if matched > best {
			best = matched
		}
	}
	return float64(best) / float64(len(subsetClean))
}

// clean lowercases and keeps only ascii letters and digits, so punctuation,
// whitespace and accented characters never break a match.
func clean(s string) string {
	lowered := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// matchingBlocks returns the Ratcliff-Obershelp matching runs between a and b
// in ascending order, coalescing adjacent runs, with a zero-size terminator.
func matchingBlocks(a, b string) []matchBlock {
	b2j := make(map[byte][]int, 36)
	for j := 0; j < len(b); j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	type region struct {
		alo, ahi, blo, bhi int
	}
	queue := []region{{0, len(a), 0, len(b)}}
	var blocks []matchBlock
	for len(queue) > 0 {
		reg := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, k := longestMatch(a, b2j, reg.alo, reg.ahi, reg.blo, reg.bhi)
		if k == 0 {
			continue
		}
		blocks = append(blocks, matchBlock{i, j, k})
		if reg.alo < i && reg.blo < j {
			queue = append(queue, region{reg.alo, i, reg.blo, j})
		}
		if i+k < reg.ahi && j+k < reg.bhi {
			queue = append(queue, region{i + k, reg.ahi, j + k, reg.bhi})
		}
	}

	sort.Slice(blocks, func(x, y int) bool {
		if blocks[x].a != blocks[y].a {
			return blocks[x].a < blocks[y].a
		}
		if blocks[x].b != blocks[y].b {
			return blocks[x].b < blocks[y].b
		}
		return blocks[x].size < blocks[y].size
	})

	merged := make([]matchBlock, 0, len(blocks)+1)
	var i1, j1, k1 int
	for _, blk := range blocks {
		if i1+k1 == blk.a && j1+k1 == blk.b {
			k1 += blk.size
			continue
		}
		if k1 > 0 {
			merged = append(merged, matchBlock{i1, j1, k1})
		}
		i1, j1, k1 = blk.a, blk.b, blk.size
	}
	if k1 > 0 {
		merged = append(merged, matchBlock{i1, j1, k1})
	}
	merged = append(merged, matchBlock{len(a), len(b), 0})
	return merged
}

// longestMatch finds the longest run common to a[alo:ahi] and b[blo:bhi],
// preferring the earliest start in a, then in b, on ties.
func longestMatch(a string, b2j map[byte][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
