package tarantool

import "testing"

func TestSchemaSetAndResolve(t *testing.T) {
	s := newSchema()
	if !s.Empty() {
		t.Fatal("new schema should be empty")
	}

	s.SetSpace("examples", 999)
	s.SetIndex("examples", "primary", 0)
	s.SetIndex("examples", "secondary", 1)

	if s.Empty() {
		t.Fatal("schema should not be empty after SetSpace")
	}

	id, err := s.SpaceID("examples")
	if err != nil {
		t.Fatalf("SpaceID: %v", err)
	}
	if id != 999 {
		t.Errorf("SpaceID = %d, want 999", id)
	}

	idxID, err := s.IndexID("examples", "secondary")
	if err != nil {
		t.Fatalf("IndexID: %v", err)
	}
	if idxID != 1 {
		t.Errorf("IndexID = %d, want 1", idxID)
	}
}

func TestSchemaSpaceNameReverseLookup(t *testing.T) {
	s := newSchema()
	s.SetSpace("examples", 999)

	name, ok := s.SpaceName(999)
	if !ok || name != "examples" {
		t.Fatalf("SpaceName(999) = (%q, %v), want (\"examples\", true)", name, ok)
	}

	if _, ok := s.SpaceName(1); ok {
		t.Fatal("SpaceName(1) succeeded for an unregistered id, want ok=false")
	}
}

func TestSchemaUnknownSpace(t *testing.T) {
	s := newSchema()
	if _, err := s.SpaceID("missing"); err == nil {
		t.Fatal("SpaceID succeeded for unregistered space, want ErrUnknownSpace")
	}
}

func TestSchemaUnknownIndex(t *testing.T) {
	s := newSchema()
	s.SetSpace("examples", 999)
	if _, err := s.IndexID("examples", "missing"); err == nil {
		t.Fatal("IndexID succeeded for unregistered index, want ErrUnknownIndex")
	}
}
