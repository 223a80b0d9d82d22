// Package oommsg carries the frame table's last-resort out-of-memory
// notification: frame.Table_t sends on OomCh right before it would
// otherwise hit the fatal "every frame pinned" condition of spec
// §4.2/§4.3, giving any listener (a reaper, a logger, a test harness)
// a chance to observe the event. Grounded on the teacher's
// oommsg/oommsg.go, kept as its own tiny package since both this port
// and the teacher treat "who is listening for OOM" as orthogonal to
// the allocator that raises it.
package oommsg

// OomCh is sent to whenever frame.Table_t cannot satisfy an
// allocation after exhausting the eviction policy. Send is
// non-blocking (frame.Table_t uses a select/default), so a build with
// no listener registered simply drops the notification.
var OomCh chan Oommsg_t = make(chan Oommsg_t)

// Oommsg_t describes one out-of-memory event.
type Oommsg_t struct {
	// Need is the number of bytes the failed allocation wanted.
	Need int
	// Resume, if non-nil, lets a listener signal the allocator to
	// retry once it believes it has freed something.
	Resume chan bool
}
