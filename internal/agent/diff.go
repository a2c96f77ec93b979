package agent

import (
	"encoding/json"
	"reflect"
	"sort"
)

// diff computes the minimal set of changed leaf paths from oldSnapshot
// to newSnapshot, recursing into nested maps and treating the
// playback_queue's ordered (url,meta) pairs as a set rather than a
// sequence (spec §4.5 "State update and diffing", §9 Open Question:
// "diff(old_snapshot, new_snapshot) = paths that changed from old to
// new"). Only paths present in newSnapshot are reported: a key that
// exists in oldSnapshot and is absent from newSnapshot does not appear
// in the result.
func diff(oldSnapshot, newSnapshot map[string]any) map[string]any {
	result := make(map[string]any)
	diffInto(oldSnapshot, newSnapshot, result)
	return result
}

func diffInto(oldVal, newVal map[string]any, out map[string]any) {
	for key, newChild := range newVal {
		oldChild, existed := oldVal[key]
		if !existed {
			out[key] = newChild
			continue
		}

		if key == "items" {
			if !sameItemSet(oldChild, newChild) {
				out[key] = newChild
			}
			continue
		}

		oldMap, oldIsMap := oldChild.(map[string]any)
		newMap, newIsMap := newChild.(map[string]any)
		if oldIsMap && newIsMap {
			nested := make(map[string]any)
			diffInto(oldMap, newMap, nested)
			if len(nested) > 0 {
				out[key] = nested
			}
			continue
		}

		if !reflect.DeepEqual(oldChild, newChild) {
			out[key] = newChild
		}
	}
}

// sameItemSet compares two playback_queue.items values as unordered
// sets of (url, meta) pairs.
func sameItemSet(oldVal, newVal any) bool {
	oldItems, _ := oldVal.([]any)
	newItems, _ := newVal.([]any)
	if len(oldItems) != len(newItems) {
		return false
	}
	return sameKeys(itemKeys(oldItems), itemKeys(newItems))
}

func itemKeys(items []any) []string {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		raw, err := json.Marshal(it)
		if err != nil {
			continue
		}
		keys = append(keys, string(raw))
	}
	sort.Strings(keys)
	return keys
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
