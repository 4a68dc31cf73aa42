package docpicker

import "sync/atomic"

// lastID is shared by popups and nodes. Popup messages carry the id of
// the popup that scheduled them, so a program hosting several popups
// never routes a timer or a reply to the wrong one.
var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}
