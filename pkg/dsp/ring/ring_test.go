package ring

import "testing"

func TestPushBelowCapacity(t *testing.T) {
	b := New[int](8)

	for i := 0; i < 5; i++ {
		b.Push(i)
	}

	if b.Len() != 5 {
		t.Errorf("expected length 5, got %d", b.Len())
	}
	if b.Wrapped() {
		t.Error("buffer should not report wrapped before reaching capacity")
	}

	out := b.Linearize(make([]int, b.Len()))
	for i, v := range out {
		if v != i {
			t.Errorf("index %d: expected %d, got %d", i, i, v)
		}
	}
}

func TestPushBeyondCapacityKeepsMostRecent(t *testing.T) {
	const capacity = 16
	b := New[int](capacity)

	// Push well past the capacity and expect exactly the last 16 values.
	total := capacity*3 + 5
	for i := 0; i < total; i++ {
		b.Push(i)
	}

	if b.Len() != capacity {
		t.Errorf("expected saturated length %d, got %d", capacity, b.Len())
	}
	if !b.Wrapped() {
		t.Error("buffer should report wrapped after exceeding capacity")
	}

	out := b.Linearize(make([]int, capacity))
	if len(out) != capacity {
		t.Fatalf("expected %d linearized entries, got %d", capacity, len(out))
	}
	for i, v := range out {
		want := total - capacity + i
		if v != want {
			t.Errorf("index %d: expected %d, got %d", i, want, v)
		}
	}
}

func TestPushSliceMatchesPush(t *testing.T) {
	single := New[float32](32)
	sliced := New[float32](32)

	chunk := make([]float32, 13)
	for round := 0; round < 7; round++ {
		for i := range chunk {
			chunk[i] = float32(round*len(chunk) + i)
		}
		for _, v := range chunk {
			single.Push(v)
		}
		sliced.PushSlice(chunk)
	}

	if single.Cursor() != sliced.Cursor() {
		t.Errorf("cursor mismatch: %d vs %d", single.Cursor(), sliced.Cursor())
	}
	a := single.Linearize(make([]float32, single.Len()))
	b := sliced.Linearize(make([]float32, sliced.Len()))
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("index %d: expected %f, got %f", i, a[i], b[i])
		}
	}
}

func TestPushSliceLongerThanCapacity(t *testing.T) {
	b := New[int](4)
	vs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	b.PushSlice(vs)

	out := b.Linearize(make([]int, b.Len()))
	want := []int{6, 7, 8, 9}
	for i, v := range out {
		if v != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], v)
		}
	}
}

func TestFilledBeforeWrap(t *testing.T) {
	b := New[int](8)
	b.Push(3)
	b.Push(4)

	got := b.Filled()
	if len(got) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(got))
	}
	if got[0] != 3 || got[1] != 4 {
		t.Errorf("expected [3 4], got %v", got)
	}
}

func TestReset(t *testing.T) {
	b := New[int](4)
	for i := 0; i < 9; i++ {
		b.Push(i)
	}
	b.Reset()

	if b.Len() != 0 || b.Cursor() != 0 || b.Wrapped() {
		t.Errorf("expected empty buffer after reset, got len=%d cursor=%d wrapped=%v",
			b.Len(), b.Cursor(), b.Wrapped())
	}
}

func BenchmarkPush(bench *testing.B) {
	b := New[float32](2048)
	bench.ResetTimer()
	for i := 0; i < bench.N; i++ {
		b.Push(float32(i))
	}
}

func BenchmarkPushSlice(bench *testing.B) {
	b := New[float32](48000 * 4)
	chunk := make([]float32, 512)
	bench.ResetTimer()
	for i := 0; i < bench.N; i++ {
		b.PushSlice(chunk)
	}
}
