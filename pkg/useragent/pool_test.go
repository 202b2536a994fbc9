package useragent

import "testing"

func TestPool_Random(t *testing.T) {
	p := NewPool([]string{"only-one"})
	if ua := p.Random(); ua != "only-one" {
		t.Errorf("expected the single entry, got %q", ua)
	}
}

func TestPool_RandomStaysInPool(t *testing.T) {
	entries := map[string]bool{"A": true, "B": true, "C": true}
	p := NewPool([]string{"A", "B", "C"})

	for i := 0; i < 50; i++ {
		if ua := p.Random(); !entries[ua] {
			t.Fatalf("got %q, which is not in the pool", ua)
		}
	}
}

func TestPool_DefaultFallback(t *testing.T) {
	p := NewPool(nil)
	if p.Random() == "" {
		t.Error("expected a non-empty user agent from the default set")
	}
}

func TestPool_CopiesInput(t *testing.T) {
	src := []string{"X"}
	p := NewPool(src)
	src[0] = "mutated"

	if ua := p.Random(); ua != "X" {
		t.Errorf("expected pool to be isolated from input mutation, got %q", ua)
	}
}
