package match

// Ratio returns the Ratcliff/Obershelp similarity of a and b: twice the
// number of characters in matching blocks divided by the total length.
// Two empty strings are identical (1.0).
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

type block struct {
	alo, ahi int
	blo, bhi int
}

// matchingRunes sums the sizes of the matching blocks found by recursively
// taking the longest common substring and repeating on both sides of it.
func matchingRunes(a, b []rune) int {
	index := make(map[rune][]int, len(b))
	for j, r := range b {
		index[r] = append(index[r], j)
	}

	matched := 0
	pending := []block{{0, len(a), 0, len(b)}}
	for len(pending) > 0 {
		cur := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		i, j, size := longestMatch(a, index, cur)
		if size == 0 {
			continue
		}
		matched += size

		if cur.alo < i && cur.blo < j {
			pending = append(pending, block{cur.alo, i, cur.blo, j})
		}
		if i+size < cur.ahi && j+size < cur.bhi {
			pending = append(pending, block{i + size, cur.ahi, j + size, cur.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest common run inside the block. Ties go to the
// run starting earliest in a, then earliest in b.
func longestMatch(a []rune, index map[rune][]int, in block) (int, int, int) {
	bestI, bestJ, bestSize := in.alo, in.blo, 0

	runs := map[int]int{}
	for i := in.alo; i < in.ahi; i++ {
		next := map[int]int{}
		for _, j := range index[a[i]] {
			if j < in.blo {
				continue
			}
			if j >= in.bhi {
				break
			}
			k := runs[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestI, bestJ, bestSize = i-k+1, j-k+1, k
			}
		}
		runs = next
	}
	return bestI, bestJ, bestSize
}
