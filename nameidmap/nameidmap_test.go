package nameidmap

import "testing"

func TestGetOrExtendIsStableAndAppendOnly(t *testing.T) {
	m := New()
	id, err := m.GetOrExtend("default:air")
	if err != nil {
		t.Fatalf("GetOrExtend: %v", err)
	}
	if id != 0 {
		t.Fatalf("first registered id = %d, want 0", id)
	}
	id2, err := m.GetOrExtend("default:air")
	if err != nil || id2 != id {
		t.Fatalf("GetOrExtend repeat = (%d,%v), want (%d,nil)", id2, err, id)
	}
	id3, err := m.GetOrExtend("default:stone")
	if err != nil {
		t.Fatalf("GetOrExtend stone: %v", err)
	}
	if id3 != 1 {
		t.Fatalf("second registered id = %d, want 1", id3)
	}
}

func TestLegacySeparatorNormalization(t *testing.T) {
	m := New()
	id, err := m.GetOrExtend("default::stone")
	if err != nil {
		t.Fatalf("GetOrExtend: %v", err)
	}
	got, ok := m.GetID("default:stone")
	if !ok || got != id {
		t.Fatalf("normalized lookup failed: got=%d ok=%v want=%d", got, ok, id)
	}
}

func TestInvalidNameRejected(t *testing.T) {
	m := New()
	if _, err := m.GetOrExtend("no-colon-here"); err == nil {
		t.Fatal("expected error for name without separator")
	}
	if _, err := m.GetOrExtend("bad mod:name"); err == nil {
		t.Fatal("expected error for name with disallowed characters")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	m := New()
	names := []string{"default:air", "default:stone", "default:water", "mymod:special_block"}
	for _, n := range names {
		if _, err := m.GetOrExtend(n); err != nil {
			t.Fatalf("GetOrExtend(%q): %v", n, err)
		}
	}
	data := m.Serialize()
	restored, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if restored.Len() != m.Len() {
		t.Fatalf("restored length = %d, want %d", restored.Len(), m.Len())
	}
	for _, n := range names {
		origID, _ := m.GetID(n)
		gotID, ok := restored.GetID(n)
		if !ok || gotID != origID {
			t.Errorf("restored id for %q = %d,%v want %d", n, gotID, ok, origID)
		}
	}
}
