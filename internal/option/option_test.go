package option

import "testing"

func TestNone(t *testing.T) {
	o := None[int]()
	if !IsNone(o) || IsSome(o) {
		t.Fatalf("got IsSome, wanted IsNone")
	}
	if p := Ptr(o); p != nil {
		t.Fatalf("got %v, wanted nil pointer", p)
	}
	if v := UnwrapOr(o, 7); v != 7 {
		t.Fatalf("got %d, wanted %d", v, 7)
	}
	if v := UnwrapOrDefault(o); v != 0 {
		t.Fatalf("got %d, wanted %d", v, 0)
	}
	if m := Map(o, func(i int) string { return "x" }); IsSome(m) {
		t.Fatalf("mapping None returned %v", *m)
	}
}

func TestSome(t *testing.T) {
	o := Some(3)
	if !IsSome(o) {
		t.Fatalf("got IsNone, wanted IsSome")
	}
	if p := Ptr(o); p == nil || *p != 3 {
		t.Fatalf("got %v, wanted pointer to 3", p)
	}
	if v := UnwrapOr(o, 7); v != 3 {
		t.Fatalf("got %d, wanted %d", v, 3)
	}
	m := Map(o, func(i int) int { return i * 2 })
	if v := UnwrapOrDefault(m); v != 6 {
		t.Fatalf("got %d, wanted %d", v, 6)
	}
}
