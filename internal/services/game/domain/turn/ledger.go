package turn

import "sort"

// SortForDisplay orders turns by (x, y) ascending with pending turns last.
// This is rendering order, not chronology.
func SortForDisplay(turns []Turn) {
	sort.SliceStable(turns, func(i, j int) bool {
		a, b := turns[i], turns[j]
		if a.Position == nil || b.Position == nil {
			return a.Position != nil && b.Position == nil
		}
		if a.Position.X != b.Position.X {
			return a.Position.X < b.Position.X
		}
		return a.Position.Y < b.Position.Y
	})
}

// UsedTileIDs returns the set of tile ids drawn in turns, pending included.
func UsedTileIDs(turns []Turn) map[int]struct{} {
	used := make(map[int]struct{}, len(turns))
	for _, t := range turns {
		used[t.TileID] = struct{}{}
	}
	return used
}

// FindPending returns the first pending turn.
func FindPending(turns []Turn) (Turn, bool) {
	for _, t := range turns {
		if t.Pending() {
			return t, true
		}
	}
	return Turn{}, false
}

// LatestPlayed returns the most recently played turn, by played time, then
// creation time, then id.
func LatestPlayed(turns []Turn) (Turn, bool) {
	var latest Turn
	found := false
	for _, t := range turns {
		if t.Pending() {
			continue
		}
		if !found || playedAfter(t, latest) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// Supersedes reports whether a should win over b when both claim the same
// board coordinate. Both turns must be played.
func Supersedes(a, b Turn) bool {
	if !a.PlayedAt.Equal(*b.PlayedAt) {
		return a.PlayedAt.After(*b.PlayedAt)
	}
	return a.ID > b.ID
}

func playedAfter(a, b Turn) bool {
	if !a.PlayedAt.Equal(*b.PlayedAt) {
		return a.PlayedAt.After(*b.PlayedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// NextSeat returns the player seated after current, wrapping around. An
// unknown current player yields the first seat.
func NextSeat(seats []string, current string) (string, bool) {
	if len(seats) == 0 {
		return "", false
	}
	for i, playerID := range seats {
		if playerID == current {
			return seats[(i+1)%len(seats)], true
		}
	}
	return seats[0], true
}

// Occupied reports whether a placed turn already holds pos.
func Occupied(turns []Turn, pos Position) bool {
	for _, t := range turns {
		if t.Placed() && *t.Position == pos {
			return true
		}
	}
	return false
}

