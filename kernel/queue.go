package kernel

// threadQueue is an intrusive FIFO linked through Thread.next. A thread is
// linked into at most one threadQueue at a time.
type threadQueue struct {
	head *Thread
	tail *Thread
	n    int
}

func (q *threadQueue) push(t *Thread) {
	t.next = nil
	if q.tail == nil {
		q.head = t
	} else {
		q.tail.next = t
	}
	q.tail = t
	q.n++
}

func (q *threadQueue) pop() *Thread {
	t := q.head
	if t == nil {
		return nil
	}
	q.unlink(nil, t)
	return t
}

// popFor removes the first thread allowed to run on cpu.
func (q *threadQueue) popFor(cpu int) *Thread {
	var prev *Thread
	for t := q.head; t != nil; prev, t = t, t.next {
		if t.pinned && t.cpu != cpu {
			continue
		}
		q.unlink(prev, t)
		return t
	}
	return nil
}

func (q *threadQueue) remove(t *Thread) bool {
	var prev *Thread
	for cur := q.head; cur != nil; prev, cur = cur, cur.next {
		if cur == t {
			q.unlink(prev, cur)
			return true
		}
	}
	return false
}

func (q *threadQueue) unlink(prev, t *Thread) {
	if prev == nil {
		q.head = t.next
	} else {
		prev.next = t.next
	}
	if q.tail == t {
		q.tail = prev
	}
	t.next = nil
	q.n--
}

func (q *threadQueue) empty() bool { return q.head == nil }

func (q *threadQueue) len() int { return q.n }

// runQueue holds Ready threads in priority bands, FIFO within a band.
type runQueue struct {
	bands [numPriorities]threadQueue
}

func (rq *runQueue) push(t *Thread) {
	rq.bands[t.priority.band()].push(t)
}

// pop removes the head of the highest non-empty band runnable on cpu.
func (rq *runQueue) pop(cpu int) *Thread {
	for b := numPriorities - 1; b >= 0; b-- {
		if t := rq.bands[b].popFor(cpu); t != nil {
			return t
		}
	}
	return nil
}

// best reports the highest priority runnable on cpu.
func (rq *runQueue) best(cpu int) (Priority, bool) {
	for b := numPriorities - 1; b >= 0; b-- {
		for t := rq.bands[b].head; t != nil; t = t.next {
			if !t.pinned || t.cpu == cpu {
				return t.priority, true
			}
		}
	}
	return 0, false
}

func (rq *runQueue) len() int {
	n := 0
	for i := range rq.bands {
		n += rq.bands[i].len()
	}
	return n
}
