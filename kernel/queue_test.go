package kernel

import "testing"

func names(q *threadQueue) []string {
	var out []string
	for t := q.head; t != nil; t = t.next {
		out = append(out, t.name)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestThreadQueueFIFO(t *testing.T) {
	var q threadQueue
	a, b, c := &Thread{name: "a"}, &Thread{name: "b"}, &Thread{name: "c"}
	q.push(a)
	q.push(b)
	q.push(c)
	if q.len() != 3 {
		t.Fatalf("len() = %d, want 3", q.len())
	}
	for _, want := range []*Thread{a, b, c} {
		if got := q.pop(); got != want {
			t.Fatalf("pop() = %v, want %v", got.name, want.name)
		}
	}
	if got := q.pop(); got != nil {
		t.Fatalf("pop() on empty queue = %v, want nil", got.name)
	}
	if !q.empty() || q.tail != nil {
		t.Fatalf("queue not empty after draining")
	}
}

func TestThreadQueueRemove(t *testing.T) {
	var q threadQueue
	a, b, c := &Thread{name: "a"}, &Thread{name: "b"}, &Thread{name: "c"}
	q.push(a)
	q.push(b)
	q.push(c)

	if !q.remove(c) {
		t.Fatalf("remove(c) = false, want true")
	}
	if got := names(&q); !equal(got, []string{"a", "b"}) {
		t.Fatalf("after remove(c) = %v, want [a b]", got)
	}
	q.push(c)
	if !q.remove(a) {
		t.Fatalf("remove(a) = false, want true")
	}
	if got := names(&q); !equal(got, []string{"b", "c"}) {
		t.Fatalf("after remove(a) = %v, want [b c]", got)
	}
	if q.remove(a) {
		t.Fatalf("second remove(a) = true, want false")
	}
	if q.len() != 2 {
		t.Fatalf("len() = %d, want 2", q.len())
	}
}

func TestThreadQueuePopForSkipsPinned(t *testing.T) {
	var q threadQueue
	idle1 := &Thread{name: "idle1", pinned: true, cpu: 1}
	a := &Thread{name: "a", cpu: 1}
	q.push(idle1)
	q.push(a)

	if got := q.popFor(0); got != a {
		t.Fatalf("popFor(0) = %v, want a", got)
	}
	if got := q.popFor(0); got != nil {
		t.Fatalf("popFor(0) = %v, want nil", got.name)
	}
	if got := q.popFor(1); got != idle1 {
		t.Fatalf("popFor(1) = %v, want idle1", got)
	}
}

func TestRunQueueBands(t *testing.T) {
	var rq runQueue
	idle := &Thread{name: "idle", priority: PriorityIdle}
	low := &Thread{name: "low", priority: PriorityLow}
	n1 := &Thread{name: "n1", priority: PriorityNormal}
	n2 := &Thread{name: "n2", priority: PriorityNormal}
	high := &Thread{name: "high", priority: PriorityHigh}
	for _, th := range []*Thread{idle, low, n1, high, n2} {
		rq.push(th)
	}

	if p, ok := rq.best(0); !ok || p != PriorityHigh {
		t.Fatalf("best() = %v, %v, want high, true", p, ok)
	}
	var got []string
	for th := rq.pop(0); th != nil; th = rq.pop(0) {
		got = append(got, th.name)
	}
	if want := []string{"high", "n1", "n2", "low", "idle"}; !equal(got, want) {
		t.Fatalf("pop order = %v, want %v", got, want)
	}
	if _, ok := rq.best(0); ok {
		t.Fatalf("best() on empty queue reported a thread")
	}
}
