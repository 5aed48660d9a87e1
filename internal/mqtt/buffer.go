package mqtt

import "log"

// outboundMsg is one serialized publish held for replay after the
// broker connection returns.
type outboundMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// replayQueue holds publishes attempted while the broker is
// unreachable. Position events form a time series, so they sit in a
// bounded ring that drops the oldest on overflow: during a night-long
// outage the newest crossings matter most. Retained system messages
// supersede each other exactly as the broker would retain them, so
// only the latest per topic is kept and replayed first.
// Not safe for concurrent use; RealPublisher synchronizes around it.
type replayQueue struct {
	ring     []outboundMsg
	head     int // next write position
	count    int
	retained map[string]outboundMsg
	dropped  bool // an event was dropped since the last drain
}

func newReplayQueue(capacity int) *replayQueue {
	return &replayQueue{
		ring:     make([]outboundMsg, capacity),
		retained: make(map[string]outboundMsg),
	}
}

func (q *replayQueue) push(msg outboundMsg) {
	if msg.retained {
		q.retained[msg.topic] = msg
		return
	}
	if q.count == len(q.ring) {
		if !q.dropped {
			log.Printf("mqtt: replay queue full (%d events), dropping oldest", len(q.ring))
			q.dropped = true
		}
	} else {
		q.count++
	}
	q.ring[q.head] = msg
	q.head = (q.head + 1) % len(q.ring)
}

// drain returns the retained state first, then the queued events in
// arrival order, and empties the queue.
func (q *replayQueue) drain() []outboundMsg {
	if q.count == 0 && len(q.retained) == 0 {
		return nil
	}
	out := make([]outboundMsg, 0, len(q.retained)+q.count)
	for _, msg := range q.retained {
		out = append(out, msg)
	}
	start := (q.head - q.count + len(q.ring)) % len(q.ring)
	for i := 0; i < q.count; i++ {
		out = append(out, q.ring[(start+i)%len(q.ring)])
	}
	q.count = 0
	q.head = 0
	q.dropped = false
	clear(q.retained)
	return out
}

func (q *replayQueue) len() int {
	return q.count + len(q.retained)
}
