package agent

import (
	"context"

	"github.com/strefethen/musiccast-hub-go/internal/upnp"
)

// commandKind selects the handling path a command takes inside run(),
// matching spec §4.5's five command categories.
type commandKind int

const (
	cmdYXC commandKind = iota
	cmdPlaybackLoad
	cmdPlaybackLoadNext
	cmdQueueLoad
	cmdQueueNext
	cmdQueuePrevious
	cmdLookup
)

// command is the request half of the request/response-with-reply-
// handle shape spec §9 calls for. YXC passthroughs carry a closure
// over the already-resolved YXC client call rather than one command
// kind per action, since every passthrough shares the same
// "invoke, return ok|error, no state write" shape (spec §4.5).
type command struct {
	kind  commandKind
	yxc   func(ctx context.Context) error
	url   string
	meta  upnp.TrackMetadata
	items []QueueItem
	keys  []string
	reply chan commandResult
}

type commandResult struct {
	value any
	err   error
}

func newCommand(kind commandKind) *command {
	return &command{kind: kind, reply: make(chan commandResult, 1)}
}
