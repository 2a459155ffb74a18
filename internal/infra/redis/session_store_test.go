package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"ochem-lab-service/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	store.Save(app.NewSession("s-1", "learner-1", sampleActivity(), nil))
	if !mr.Exists("activity:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if v, _ := mr.Get("activity:session:s-1"); v != "lab-quiz" {
		t.Fatalf("expected marker to hold activity id, got %q", v)
	}
	if _, ok := store.Get("s-1"); !ok {
		t.Fatalf("expected session in local map")
	}

	store.Delete("s-1")
	if mr.Exists("activity:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
}
