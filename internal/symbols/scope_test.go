package symbols

import (
	"testing"

	"github.com/kaigouthro/pine-lang/internal/types"
)

func TestDeclareAssignsDenseSlots(t *testing.T) {
	s := NewScope(nil)
	for i, name := range []string{"a", "b", "c"} {
		slot, ok := s.Declare(name)
		if !ok {
			t.Fatalf("Declare(%q) failed", name)
		}
		if slot != i {
			t.Errorf("Declare(%q) = slot %d, want %d", name, slot, i)
		}
	}
	if s.SlotCount() != 3 {
		t.Errorf("SlotCount() = %d, want 3", s.SlotCount())
	}
}

func TestRedeclareInSameScopeFails(t *testing.T) {
	s := NewScope(nil)
	s.Declare("a")
	if _, ok := s.Declare("a"); ok {
		t.Error("redeclaring in the same scope should fail")
	}
}

func TestResolveWalksOutwardCountingDepth(t *testing.T) {
	root := NewScope(nil)
	rootSlot, _ := root.Declare("a")

	child := NewScope(root)
	childSlot, _ := child.Declare("b")

	vi, ok := child.Resolve("b")
	if !ok || vi != (VarIndex{Slot: childSlot, Depth: 0}) {
		t.Errorf("Resolve(b) = %+v, %v", vi, ok)
	}
	vi, ok = child.Resolve("a")
	if !ok || vi != (VarIndex{Slot: rootSlot, Depth: 1}) {
		t.Errorf("Resolve(a) = %+v, %v", vi, ok)
	}
	if _, ok := child.Resolve("zzz"); ok {
		t.Error("Resolve of an undeclared name should fail")
	}
}

func TestShadowingResolvesToInnermost(t *testing.T) {
	root := NewScope(nil)
	root.Declare("a")
	root.SetType(0, types.IntSimple)

	child := NewScope(root)
	slot, ok := child.Declare("a")
	if !ok {
		t.Fatal("shadowing across a scope boundary should be permitted")
	}
	child.SetType(slot, types.FloatSimple)

	vi, owner, ok := child.ResolveScope("a")
	if !ok || vi.Depth != 0 {
		t.Fatalf("expected the innermost binding, got %+v", vi)
	}
	if ty, _ := owner.TypeOf(vi.Slot); !types.Equal(ty, types.FloatSimple) {
		t.Errorf("expected the shadowing declaration's type, got %v", ty)
	}
}

func TestCtxIDAllocatorIsMonotonicFromOne(t *testing.T) {
	var a CtxIDAllocator
	for want := 1; want <= 3; want++ {
		if got := a.Next(); got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}
}
