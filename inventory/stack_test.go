package inventory

import (
	"testing"

	"github.com/est31/mimas-go/world"
)

func TestStackPutSameBlockClampsAndReturnsOverflow(t *testing.T) {
	a := With(world.Block(1), 55)
	overflow := a.Put(With(world.Block(1), 10), false, StackSizeLimit)
	block, count, ok := a.Content()
	if !ok || block != 1 || count != StackSizeLimit {
		t.Fatalf("a after put = (%v,%v,%v), want (1,60,true)", block, count, ok)
	}
	_, overflowCount, overflowOk := overflow.Content()
	if !overflowOk || overflowCount != 5 {
		t.Fatalf("overflow = (%v,%v), want 5 items", overflowCount, overflowOk)
	}
}

func TestStackPutDifferentBlockReturnsUnchanged(t *testing.T) {
	a := With(world.Block(1), 10)
	other := With(world.Block(2), 5)
	result := a.Put(other, false, StackSizeLimit)
	if result != other {
		t.Fatalf("put of different block = %+v, want unchanged %+v", result, other)
	}
	block, count, _ := a.Content()
	if block != 1 || count != 10 {
		t.Fatalf("a mutated unexpectedly: (%v,%v)", block, count)
	}
}

func TestStackPutIntoEmptyRequiresAllowEmpty(t *testing.T) {
	var a Stack
	other := With(world.Block(3), 5)
	rejected := a.Put(other, false, StackSizeLimit)
	if rejected != other || !a.IsEmpty() {
		t.Fatal("put without allowEmpty into empty stack must reject")
	}
	residue := a.Put(other, true, StackSizeLimit)
	if !residue.IsEmpty() {
		t.Fatalf("residue = %+v, want empty", residue)
	}
	block, count, ok := a.Content()
	if !ok || block != 3 || count != 5 {
		t.Fatalf("a after allowEmpty put = (%v,%v,%v)", block, count, ok)
	}
}

func TestStackArithmeticConservesCount(t *testing.T) {
	// Property 5 from SPEC_FULL.md §8: put(a,b,L) conserves total count
	// when same-block, and a'.count <= L.
	cases := []struct{ a, b, limit uint16 }{
		{10, 20, 60}, {55, 10, 60}, {0, 30, 60}, {60, 60, 60},
	}
	for _, c := range cases {
		a := With(world.Block(9), c.a)
		if c.a == 0 {
			a = Empty
		}
		b := With(world.Block(9), c.b)
		overflow := a.Put(b, true, c.limit)
		_, aCount, _ := a.Content()
		_, overflowCount, hasOverflow := overflow.Content()
		if !hasOverflow {
			overflowCount = 0
		}
		if aCount > c.limit {
			t.Errorf("a.count=%d exceeds limit=%d", aCount, c.limit)
		}
		if uint32(aCount)+uint32(overflowCount) != uint32(c.a)+uint32(c.b) {
			t.Errorf("count not conserved: a=%d b=%d -> a'=%d overflow=%d",
				c.a, c.b, aCount, overflowCount)
		}
	}
}

func TestTakeNEmptiesExactly(t *testing.T) {
	a := With(world.Block(4), 3)
	taken, emptied := a.TakeN(3)
	if !emptied {
		t.Fatal("expected stack to be emptied")
	}
	_, count, _ := taken.Content()
	if count != 3 {
		t.Fatalf("taken count = %d, want 3", count)
	}
	if !a.IsEmpty() {
		t.Fatal("source stack should be empty after taking all items")
	}
}
