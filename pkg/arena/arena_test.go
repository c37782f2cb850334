package arena

import "testing"

func TestArenaAllocDistinctPointers(t *testing.T) {
	a := New[int]()
	p1 := a.AllocValue(1)
	p2 := a.AllocValue(2)
	if *p1 != 1 || *p2 != 2 {
		t.Fatalf("got %d, %d", *p1, *p2)
	}
	if p1 == p2 {
		t.Fatal("expected distinct pointers")
	}
	if a.Len() != 2 {
		t.Fatalf("len = %d, want 2", a.Len())
	}
}

func TestArenaSpansBlocks(t *testing.T) {
	a := New[int]()
	ptrs := make([]*int, 0, blockSize*3)
	for i := 0; i < blockSize*3; i++ {
		ptrs = append(ptrs, a.AllocValue(i))
	}
	for i, p := range ptrs {
		if *p != i {
			t.Fatalf("ptrs[%d] = %d, want %d", i, *p, i)
		}
	}
}

func TestArenaRelease(t *testing.T) {
	a := New[int]()
	a.AllocValue(1)
	a.Release()
	if a.Len() != 0 {
		t.Fatalf("len after release = %d, want 0", a.Len())
	}
}

func TestStringsIntern(t *testing.T) {
	s := NewStrings()
	a := s.Intern("HELLO")
	b := s.Intern("HELLO")
	if a != b {
		t.Fatal("expected equal strings")
	}
	c := s.Intern("WORLD")
	if a == c {
		t.Fatal("expected distinct strings")
	}
}
