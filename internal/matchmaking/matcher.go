package matchmaking

import (
	"math"
	"sort"
	"time"
)

// Relaxation thresholds: waiting longer progressively widens who a player
// can be paired with.
const (
	crossRegionAfter     = 60 * time.Second
	adjacentBracketAfter = 45 * time.Second
	wideOpenAfter        = 90 * time.Second
)

const (
	crossRegionPenalty = 5000.0
	bracketGapPenalty  = 1000.0
)

// BuildMatches runs one greedy pairing pass over the queued entries of a
// single game type. Entries are considered oldest-joined-first; each
// unconsumed entry pairs with its lowest-weight compatible candidate, if any.
// The function is pure: it never mutates its input.
func BuildMatches(entries []QueueEntry, now time.Time) []MatchPair {
	pool := make([]QueueEntry, len(entries))
	copy(pool, entries)
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].JoinedAt.Before(pool[j].JoinedAt)
	})

	consumed := make(map[int]bool, len(pool))
	var pairs []MatchPair

	for i := range pool {
		if consumed[i] {
			continue
		}
		bestIdx := -1
		bestWeight := math.Inf(1)
		for j := i + 1; j < len(pool); j++ {
			if consumed[j] {
				continue
			}
			if pool[i].UserID == pool[j].UserID {
				continue
			}
			if !Compatible(pool[i], pool[j], now) {
				continue
			}
			w := Weight(pool[i], pool[j], now)
			if w < bestWeight {
				bestWeight = w
				bestIdx = j
			}
		}
		if bestIdx < 0 {
			continue
		}
		consumed[i] = true
		consumed[bestIdx] = true
		pairs = append(pairs, newPair(pool[i], pool[bestIdx], now, bestWeight))
	}
	return pairs
}

// Compatible evaluates the pairwise compatibility rules: private-code
// override first, then region, then skill bracket.
func Compatible(a, b QueueEntry, now time.Time) bool {
	if a.Metadata.MatchCode != "" || b.Metadata.MatchCode != "" {
		return privateCompatible(a, b)
	}
	if !regionCompatible(a, b, now) {
		return false
	}
	return bracketCompatible(a, b, now)
}

// privateCompatible requires both sides to carry the same match code and,
// when both declared a seat preference, different seats. Skill and region
// checks are bypassed entirely.
func privateCompatible(a, b QueueEntry) bool {
	if a.Metadata.MatchCode == "" || a.Metadata.MatchCode != b.Metadata.MatchCode {
		return false
	}
	if a.Metadata.Seat != "" && b.Metadata.Seat != "" && a.Metadata.Seat == b.Metadata.Seat {
		return false
	}
	return true
}

func regionCompatible(a, b QueueEntry, now time.Time) bool {
	ra, rb := a.EffectiveRegion(), b.EffectiveRegion()
	if ra == rb || ra == RegionGlobal || rb == RegionGlobal {
		return true
	}
	return a.WaitTime(now) >= crossRegionAfter || b.WaitTime(now) >= crossRegionAfter
}

func bracketCompatible(a, b QueueEntry, now time.Time) bool {
	gap := bracketGap(a, b)
	switch {
	case gap == 0:
		return true
	case gap == 1:
		return a.WaitTime(now) >= adjacentBracketAfter || b.WaitTime(now) >= adjacentBracketAfter
	default:
		return a.WaitTime(now) >= wideOpenAfter || b.WaitTime(now) >= wideOpenAfter
	}
}

func bracketGap(a, b QueueEntry) int {
	ia, ib := BracketIndex(a.SkillBracket), BracketIndex(b.SkillBracket)
	if ia < 0 || ib < 0 {
		return len(brackets) // unknown bracket: maximally distant
	}
	if ia > ib {
		return ia - ib
	}
	return ib - ia
}

// Weight is the candidate-selection penalty; lower wins. Private lobbies
// always weigh zero because rating is irrelevant once codes match.
func Weight(a, b QueueEntry, now time.Time) float64 {
	if a.Metadata.MatchCode != "" && a.Metadata.MatchCode == b.Metadata.MatchCode {
		return 0
	}
	w := math.Abs(float64(a.RatingSnapshot - b.RatingSnapshot))
	if a.EffectiveRegion() != b.EffectiveRegion() {
		w += crossRegionPenalty
	}
	w += float64(bracketGap(a, b)) * bracketGapPenalty
	w += math.Abs(a.WaitTime(now).Seconds() - b.WaitTime(now).Seconds())
	return w
}

func newPair(a, b QueueEntry, now time.Time, weight float64) MatchPair {
	host, guest := a, b
	// Seat preferences decide hosting; otherwise the older entry hosts.
	if a.Metadata.Seat == SeatGuest || b.Metadata.Seat == SeatHost {
		host, guest = b, a
	}
	return MatchPair{
		Host:   host,
		Guest:  guest,
		Reason: matchReason(a, b, now),
		Weight: weight,
	}
}

// matchReason tags the pair with a human-readable explanation of which rule
// admitted it: private-code, then wide-open (bracket gap >= 2), relaxed
// (cross-region and adjacent bracket), adjacent-bracket, cross-region, and
// finally strict.
func matchReason(a, b QueueEntry, now time.Time) string {
	if a.Metadata.MatchCode != "" && a.Metadata.MatchCode == b.Metadata.MatchCode {
		return ReasonPrivateCode
	}
	gap := bracketGap(a, b)
	ra, rb := a.EffectiveRegion(), b.EffectiveRegion()
	crossRegion := ra != rb && ra != RegionGlobal && rb != RegionGlobal

	switch {
	case gap >= 2:
		return ReasonWideOpen
	case crossRegion && gap == 1:
		return ReasonRelaxed
	case gap == 1:
		return ReasonAdjacentBracket
	case crossRegion:
		return ReasonCrossRegion
	default:
		return ReasonStrict
	}
}
