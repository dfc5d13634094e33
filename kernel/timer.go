package kernel

// timerQueue is a deadline-ordered intrusive list linked through
// Thread.timerNext. Entries with equal deadlines keep insertion order.
type timerQueue struct {
	head *Thread
	n    int
}

// insert queues t with the given deadline. It reports false if t already
// has an outstanding entry.
func (q *timerQueue) insert(t *Thread, deadline Instant) bool {
	if t.timerQueued {
		return false
	}
	t.deadline = deadline
	t.timerQueued = true

	p := &q.head
	for *p != nil && (*p).deadline <= deadline {
		p = &(*p).timerNext
	}
	t.timerNext = *p
	*p = t
	q.n++
	return true
}

func (q *timerQueue) remove(t *Thread) bool {
	if !t.timerQueued {
		return false
	}
	for p := &q.head; *p != nil; p = &(*p).timerNext {
		if *p == t {
			*p = t.timerNext
			t.timerNext = nil
			t.timerQueued = false
			q.n--
			return true
		}
	}
	return false
}

// popExpired removes and returns the earliest entry if its deadline is at
// or before now.
func (q *timerQueue) popExpired(now Instant) *Thread {
	t := q.head
	if t == nil || t.deadline > now {
		return nil
	}
	q.head = t.timerNext
	t.timerNext = nil
	t.timerQueued = false
	q.n--
	return t
}

// next returns the earliest pending deadline.
func (q *timerQueue) next() (Instant, bool) {
	if q.head == nil {
		return 0, false
	}
	return q.head.deadline, true
}

func (q *timerQueue) len() int { return q.n }
