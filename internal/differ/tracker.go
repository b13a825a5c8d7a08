// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"sync/atomic"

	"github.com/tfctl/revctl/internal/changeset"
)

// Tracker discards stale results. Every computation takes a ticket from
// Begin; when it completes, Current says whether a newer computation has
// started since. Superseded computations are left to finish and their
// results are dropped.
type Tracker struct {
	seq atomic.Uint64
}

// Begin issues the next ticket. Tickets increase monotonically.
func (t *Tracker) Begin() uint64 {
	return t.seq.Add(1)
}

// Current reports whether ticket is the most recently issued one.
func (t *Tracker) Current(ticket uint64) bool {
	return ticket != 0 && t.seq.Load() == ticket
}

// Result is a completed computation tagged with the ticket it ran under.
type Result struct {
	Ticket    uint64
	Request   Request
	ChangeSet changeset.ChangeSet
}
