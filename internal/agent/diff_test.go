package agent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffFlatFieldChange(t *testing.T) {
	old := map[string]any{"volume": float64(30), "input": "hdmi1"}
	new_ := map[string]any{"volume": float64(42), "input": "hdmi1"}

	d := diff(old, new_)
	require.Equal(t, map[string]any{"volume": float64(42)}, d)
}

func TestDiffNestedMapRecursesAndEmitsOnlyChangedSubpath(t *testing.T) {
	old := map[string]any{
		"status": map[string]any{
			"volume": float64(30),
			"equalizer": map[string]any{
				"mode": "flat",
				"high": float64(0),
			},
		},
	}
	new_ := map[string]any{
		"status": map[string]any{
			"volume": float64(30),
			"equalizer": map[string]any{
				"mode": "flat",
				"high": float64(3),
			},
		},
	}

	d := diff(old, new_)
	require.Equal(t, map[string]any{
		"status": map[string]any{
			"equalizer": map[string]any{"high": float64(3)},
		},
	}, d)
}

func TestDiffNoChangeYieldsEmptyDiff(t *testing.T) {
	old := map[string]any{"status": map[string]any{"volume": float64(30)}}
	new_ := map[string]any{"status": map[string]any{"volume": float64(30)}}

	d := diff(old, new_)
	require.Empty(t, d)
}

func TestDiffNewKeyIsEmitted(t *testing.T) {
	old := map[string]any{}
	new_ := map[string]any{"upnp_session_id": "uuid:abc"}

	d := diff(old, new_)
	require.Equal(t, map[string]any{"upnp_session_id": "uuid:abc"}, d)
}

func TestDiffQueueItemsComparedAsSetIgnoringOrder(t *testing.T) {
	old := map[string]any{
		"playback_queue": map[string]any{
			"items": []any{
				map[string]any{"url": "u1"},
				map[string]any{"url": "u2"},
			},
		},
	}
	new_ := map[string]any{
		"playback_queue": map[string]any{
			"items": []any{
				map[string]any{"url": "u2"},
				map[string]any{"url": "u1"},
			},
		},
	}

	d := diff(old, new_)
	require.Empty(t, d)
}

func TestDiffQueueItemsSetChangeIsEmitted(t *testing.T) {
	old := map[string]any{
		"playback_queue": map[string]any{
			"items": []any{map[string]any{"url": "u1"}},
		},
	}
	new_ := map[string]any{
		"playback_queue": map[string]any{
			"items": []any{map[string]any{"url": "u1"}, map[string]any{"url": "u2"}},
		},
	}

	d := diff(old, new_)
	require.Equal(t, []any{map[string]any{"url": "u1"}, map[string]any{"url": "u2"}}, d["playback_queue"].(map[string]any)["items"])
}

func TestApplyDiffProducesNewSnapshot(t *testing.T) {
	old := map[string]any{
		"status": map[string]any{"volume": float64(30), "mute": false},
		"host":   "192.168.1.10",
	}
	new_ := map[string]any{
		"status": map[string]any{"volume": float64(42), "mute": false},
		"host":   "192.168.1.10",
	}

	d := diff(old, new_)
	applied := applyDiffForTest(old, d)
	require.Equal(t, new_, applied)
}

// applyDiffForTest merges a diff back onto a snapshot, verifying the
// property from spec §8: "apply(S, D) = S′". It exists only to check
// diff's correctness in tests, not as production behavior the Agent
// needs (the Agent never reconstructs state from a diff).
func applyDiffForTest(snapshot map[string]any, d map[string]any) map[string]any {
	out := make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		out[k] = v
	}
	for k, v := range d {
		if nestedNew, ok := v.(map[string]any); ok {
			if nestedOld, ok := out[k].(map[string]any); ok {
				out[k] = applyDiffForTest(nestedOld, nestedNew)
				continue
			}
		}
		out[k] = v
	}
	return out
}
