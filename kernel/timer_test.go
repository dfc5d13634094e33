package kernel

import "testing"

func TestTimerQueueDeadlineOrder(t *testing.T) {
	var q timerQueue
	a, b, c, d := &Thread{name: "a"}, &Thread{name: "b"}, &Thread{name: "c"}, &Thread{name: "d"}
	q.insert(a, 30)
	q.insert(b, 10)
	q.insert(c, 30)
	q.insert(d, 20)

	if next, ok := q.next(); !ok || next != 10 {
		t.Fatalf("next() = %d, %v, want 10, true", next, ok)
	}
	if got := q.popExpired(5); got != nil {
		t.Fatalf("popExpired(5) = %v, want nil", got.name)
	}

	var got []string
	for th := q.popExpired(30); th != nil; th = q.popExpired(30) {
		got = append(got, th.name)
		if th.timerQueued {
			t.Fatalf("%s still marked queued after pop", th.name)
		}
	}
	if want := []string{"b", "d", "a", "c"}; !equal(got, want) {
		t.Fatalf("wake order = %v, want %v", got, want)
	}
	if q.len() != 0 {
		t.Fatalf("len() = %d, want 0", q.len())
	}
}

func TestTimerQueueOneEntryPerThread(t *testing.T) {
	var q timerQueue
	a := &Thread{name: "a"}
	if !q.insert(a, 10) {
		t.Fatalf("first insert = false, want true")
	}
	if q.insert(a, 5) {
		t.Fatalf("second insert = true, want false")
	}
	if a.deadline != 10 {
		t.Fatalf("deadline = %d, want 10", a.deadline)
	}
}

func TestTimerQueueRemove(t *testing.T) {
	var q timerQueue
	a, b := &Thread{name: "a"}, &Thread{name: "b"}
	q.insert(a, 10)
	q.insert(b, 20)

	if !q.remove(a) {
		t.Fatalf("remove(a) = false, want true")
	}
	if q.remove(a) {
		t.Fatalf("second remove(a) = true, want false")
	}
	if got := q.popExpired(100); got != b {
		t.Fatalf("popExpired(100) = %v, want b", got)
	}
	if !q.insert(a, 1) {
		t.Fatalf("reinsert after remove = false, want true")
	}
}
