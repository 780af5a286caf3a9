package tickqueue

import (
	"reflect"
	"testing"
)

func TestPushExpiresAtExactBoundary(t *testing.T) {
	q := New(3)
	q.Push("tok-1")

	for i := 0; i < 2; i++ {
		if expired := q.Tick(); len(expired) != 0 {
			t.Fatalf("tick %d: expected no expiry yet, got %v", i+1, expired)
		}
	}
	expired := q.Tick()
	if !reflect.DeepEqual(expired, []string{"tok-1"}) {
		t.Fatalf("expected [tok-1] to expire at tick 3, got %v", expired)
	}
}

func TestFIFOOrderAcrossPushes(t *testing.T) {
	q := New(2)
	q.Push("a")
	q.Tick() // ticksPassed=1
	q.Push("b")
	first := q.Tick() // ticksPassed=2: a created at 0, expires at 0+2=2
	if !reflect.DeepEqual(first, []string{"a"}) {
		t.Fatalf("expected [a] at tick 2, got %v", first)
	}
	second := q.Tick() // ticksPassed=3: b created at 1, expires at 1+2=3
	if !reflect.DeepEqual(second, []string{"b"}) {
		t.Fatalf("expected [b] at tick 3, got %v", second)
	}
}

func TestEveryPushedTokenExitsExactlyOnce(t *testing.T) {
	q := New(5)
	tokens := []string{"t1", "t2", "t3", "t4"}
	for _, tok := range tokens {
		q.Push(tok)
	}
	seen := map[string]int{}
	for i := 0; i < 10; i++ {
		for _, tok := range q.Tick() {
			seen[tok]++
		}
	}
	for _, tok := range tokens {
		if seen[tok] != 1 {
			t.Fatalf("token %s expired %d times, want 1", tok, seen[tok])
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got len %d", q.Len())
	}
}

func TestNewPanicsOnNonPositiveMaxTicks(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for max_ticks <= 0")
		}
	}()
	New(0)
}
