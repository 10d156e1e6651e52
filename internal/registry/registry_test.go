package registry

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewRejectsBadEntries(t *testing.T) {
	if _, err := New(Descriptor{ID: " "}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := New(Descriptor{ID: "a"}, Descriptor{ID: "a"}); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestLookupAndDefaults(t *testing.T) {
	r, err := New(Descriptor{ID: "viewer"}, Descriptor{ID: "search", Name: "Search", Route: "/search", Handle: "search-ui"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d, ok := r.Lookup("viewer")
	if !ok || d.Name != "viewer" || d.Handle != "viewer" {
		t.Fatalf("Lookup(viewer) = %+v, %v", d, ok)
	}
	if _, ok := r.Lookup("nope"); ok || r.Has("nope") {
		t.Fatal("unknown id found")
	}
	ids := []string{}
	for _, d := range r.All() {
		ids = append(ids, d.ID)
	}
	if !reflect.DeepEqual(ids, []string{"viewer", "search"}) {
		t.Fatalf("All order = %v", ids)
	}
}

func TestResolveSuggests(t *testing.T) {
	r, err := New(Builtin()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = r.Resolve("albms")
	var unknown *UnknownViewError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want *UnknownViewError", err)
	}
	if len(unknown.Suggestions) == 0 || unknown.Suggestions[0] != "albums" {
		t.Fatalf("suggestions = %v, want albums first", unknown.Suggestions)
	}
	if got := r.Suggest("zzzzzzzzzz", 3); len(got) != 0 {
		t.Fatalf("Suggest(far) = %v, want none", got)
	}
	if d, err := r.Resolve("tags"); err != nil || d.Route != "/tags" {
		t.Fatalf("Resolve(tags) = %+v, %v", d, err)
	}
}
