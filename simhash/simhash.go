package simhash

import (
	"hash/fnv"
	"math/bits"
	"sort"
	"strings"
	"unicode"

	"github.com/use-agent/oppscout/models"
)

// DefaultThreshold is the largest Hamming distance at which two
// opportunities count as near-duplicates.
const DefaultThreshold = 3

// Fingerprint computes a 64-bit SimHash of the given text.
// Uses FNV-64a hash on lower-cased word tokens with bit vector accumulation.
func Fingerprint(text string) uint64 {
	words := tokens(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int

	for _, word := range words {
		h := fnv.New64a()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}

	return fingerprint
}

// tokens splits text into lower-cased words with surrounding punctuation
// removed, so "Grant," and "grant" hash the same.
func tokens(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// OfOpportunity fingerprints an opportunity's title and description.
func OfOpportunity(o models.Opportunity) uint64 {
	return Fingerprint(o.Title + " " + o.Description)
}

// Collapse drops near-duplicate opportunities, keeping the one with the
// highest success probability from each group. The result is ordered by
// probability, highest first; ties keep their input order.
func Collapse(opps []models.Opportunity, threshold int) []models.Opportunity {
	ordered := make([]models.Opportunity, len(opps))
	copy(ordered, opps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SuccessProbability > ordered[j].SuccessProbability
	})

	out := make([]models.Opportunity, 0, len(ordered))
	kept := make([]uint64, 0, len(ordered))
next:
	for _, o := range ordered {
		fp := OfOpportunity(o)
		for _, k := range kept {
			if Similar(fp, k, threshold) {
				continue next
			}
		}
		kept = append(kept, fp)
		out = append(out, o)
	}
	return out
}
