package ctrack

// reconstructed is one event after nesting has been resolved: its original
// site, its inclusive duration, its exclusive duration (inclusive minus the
// sum of its direct children's inclusive durations), and whether it had no
// parent in its goroutine's call tree.
type reconstructed struct {
	siteID    int
	duration  int64
	exclusive int64
	isRoot    bool
}

type pendingEvent struct {
	event    RawEvent
	childSum int64
}

// reconstructGoroutine walks one goroutine's flat, exit-order event list and
// recovers the nesting it was recorded from, using a stack of events still
// waiting for their parent (if any) to show up later in the sequence.
// Because children always close — and therefore appear — before their
// parent, by the time an event E is reached every one of its descendants is
// already sitting on the stack; E claims any stack entries whose interval
// it fully contains, subtracts their duration from its own to get its
// exclusive time, and is pushed in their place to wait for its own parent.
// Anything left on the stack once the list is exhausted had no parent: a
// root.
func reconstructGoroutine(events []RawEvent) ([]reconstructed, error) {
	out := make([]reconstructed, 0, len(events))
	var stack []pendingEvent

	for _, e := range events {
		if e.Enter > e.Exit {
			return nil, ErrMalformedNesting
		}

		var childSum int64
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.event.Enter >= e.Enter && top.event.Exit <= e.Exit {
				stack = stack[:len(stack)-1]
				out = append(out, reconstructed{
					siteID:    top.event.SiteID,
					duration:  top.event.duration(),
					exclusive: top.event.duration() - top.childSum,
				})
				childSum += top.event.duration()
				continue
			}
			if disjoint(top.event, e) {
				break
			}
			// Neither contained nor disjoint: a partial overlap, which
			// violates strict scope nesting.
			return nil, ErrMalformedNesting
		}
		stack = append(stack, pendingEvent{event: e, childSum: childSum})
	}

	for _, p := range stack {
		out = append(out, reconstructed{
			siteID:    p.event.SiteID,
			duration:  p.event.duration(),
			exclusive: p.event.duration() - p.childSum,
			isRoot:    true,
		})
	}

	return out, nil
}

func disjoint(a, b RawEvent) bool {
	return a.Exit <= b.Enter || b.Exit <= a.Enter
}
