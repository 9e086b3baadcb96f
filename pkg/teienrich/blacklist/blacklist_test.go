package blacklist

import "testing"

func TestContains(t *testing.T) {
	l := New("p1", "#p2", " ", "")

	if !l.Contains("p1") || !l.Contains("p2") {
		t.Errorf("Expected p1 and p2 to be blacklisted, got %v", l.All())
	}
	if l.Contains("#p2") {
		t.Error("Lookups use bare ids")
	}
	if l.Len() != 2 {
		t.Errorf("Expected 2 ids, got %d", l.Len())
	}
}

func TestAddRemove(t *testing.T) {
	l := New()
	l.Add("x")
	l.Add("x")
	if l.Len() != 1 {
		t.Errorf("Expected duplicate add to be ignored, got %d", l.Len())
	}
	l.Remove("#x")
	if l.Contains("x") {
		t.Error("Expected x removed")
	}

	l.Add(" #p1 ")
	l.Remove(" #p1 ")
	if l.Len() != 0 {
		t.Errorf("Expected padded id removed like it was added, got %v", l.All())
	}
}

func TestNilList(t *testing.T) {
	var l *List
	l.Remove("a")
	if l.Contains("a") || l.Len() != 0 || l.All() != nil {
		t.Error("nil list should be empty")
	}
}

func TestAllSorted(t *testing.T) {
	got := New("b", "a", "c").All()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("All() = %v", got)
	}
}
