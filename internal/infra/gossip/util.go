package gossip

import (
	"net"
	"time"
)

// readDeadline bounds each UDP read so the inbound loop re-checks ctx
// cancellation and the pause flag promptly.
const readDeadline = 1 * time.Second

func timeNowAdd(d time.Duration) time.Time { return time.Now().Add(d) }

// isTimeoutOrWouldBlock recognizes the "no datagram available" family of
// socket conditions, absorbed silently rather than logged as errors.
func isTimeoutOrWouldBlock(err error) bool {
	var ne net.Error
	if as, ok := err.(net.Error); ok {
		ne = as
		return ne.Timeout()
	}
	return false
}
