package agent

import "math/rand"

// pickNeighbor selects the next queue item to load: uniformly random
// when shuffle is on, otherwise the item at currentURL's index plus
// direction (+1 for next, -1 for previous), clamped to the first/last
// item (spec §4.5 "Queue next/previous").
func pickNeighbor(items []QueueItem, currentURL string, shuffleOn bool, direction int, rng *rand.Rand) (QueueItem, bool) {
	if len(items) == 0 {
		return QueueItem{}, false
	}

	if shuffleOn {
		return items[rng.Intn(len(items))], true
	}

	idx := 0
	for i, item := range items {
		if item.URL == currentURL {
			idx = i
			break
		}
	}

	idx += direction
	if idx < 0 {
		idx = 0
	}
	if idx > len(items)-1 {
		idx = len(items) - 1
	}

	return items[idx], true
}
