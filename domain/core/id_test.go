package core

import "testing"

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[ID]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Fatalf("generated an empty id")
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestParseIDs(t *testing.T) {
	if _, err := ParseExperimentID("exp-1"); err != nil {
		t.Fatalf("ParseExperimentID: %v", err)
	}
	if _, err := ParseExperimentID("   "); err == nil {
		t.Fatalf("blank experiment id must be rejected")
	}
	if _, err := ParseAnalysisID(""); err == nil {
		t.Fatalf("empty analysis id must be rejected")
	}
}
