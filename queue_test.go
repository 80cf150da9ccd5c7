package eventsubject

import (
	"sync"
	"testing"
)

func TestNewMPSCQueue(t *testing.T) {
	q := newMPSCQueue[int](4)
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if len(q.slab) != 4 {
		t.Errorf("len(slab) = %v, want 4", len(q.slab))
	}
	if !q.isEmpty() {
		t.Error("expected a fresh queue to be empty")
	}
	if _, ok := q.poll(); ok {
		t.Error("expected poll on empty queue to fail")
	}
}

func TestMPSCQueue_pushPollOrder(t *testing.T) {
	// a hint of 4 forces growth past the slab
	q := newMPSCQueue[int](4)

	for i := 0; i < 10; i++ {
		q.push(i)
	}
	if q.isEmpty() {
		t.Fatal("expected queue not to be empty")
	}

	for i := 0; i < 10; i++ {
		v, ok := q.poll()
		if !ok {
			t.Fatalf("poll %d failed", i)
		}
		if v != i {
			t.Errorf("poll %d = %v, want %v", i, v, i)
		}
	}
	if _, ok := q.poll(); ok {
		t.Error("expected queue to be exhausted")
	}
	if !q.isEmpty() {
		t.Error("expected queue to be empty")
	}
}

func TestMPSCQueue_interleavedPushPoll(t *testing.T) {
	q := newMPSCQueue[int](2)
	for i := 0; i < 100; i++ {
		q.push(i * 2)
		q.push(i*2 + 1)
		if v, ok := q.poll(); !ok || v != i {
			t.Fatalf("poll = %v, %v, want %v, true", v, ok, i)
		}
	}
	for i := 100; i < 200; i++ {
		if v, ok := q.poll(); !ok || v != i {
			t.Fatalf("poll = %v, %v, want %v, true", v, ok, i)
		}
	}
}

func TestMPSCQueue_clear(t *testing.T) {
	q := newMPSCQueue[int](4)
	for i := 0; i < 10; i++ {
		q.push(i)
	}
	q.clear()
	if !q.isEmpty() {
		t.Error("expected cleared queue to be empty")
	}
	// still usable after a clear
	q.push(42)
	if v, ok := q.poll(); !ok || v != 42 {
		t.Errorf("poll = %v, %v, want 42, true", v, ok)
	}
}

func TestMPSCQueue_pollReleasesValues(t *testing.T) {
	q := newMPSCQueue[*int](2)
	v := new(int)
	q.push(v)
	if got, ok := q.poll(); !ok || got != v {
		t.Fatal("unexpected poll result")
	}
	// the consumed node must not retain the reference
	if q.head.value != nil {
		t.Error("expected the consumed slot to be zeroed")
	}
}

func TestMPSCQueue_concurrentPush(t *testing.T) {
	const (
		producers = 8
		perEach   = 2000
	)

	q := newMPSCQueue[[2]int](16)

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		p := p
		go func() {
			defer wg.Done()
			for i := 0; i < perEach; i++ {
				q.push([2]int{p, i})
			}
		}()
	}
	wg.Wait()

	next := make([]int, producers)
	total := 0
	for {
		v, ok := q.poll()
		if !ok {
			break
		}
		total++
		p, i := v[0], v[1]
		if next[p] != i {
			t.Fatalf("producer %d out of order: got %d, want %d", p, i, next[p])
		}
		next[p]++
	}
	if total != producers*perEach {
		t.Errorf("polled %d values, want %d", total, producers*perEach)
	}
	if !q.isEmpty() {
		t.Error("expected queue to be empty")
	}
}
