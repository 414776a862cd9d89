package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveStableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, []byte("line one\nline two\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	first, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.IsZero() {
		t.Fatalf("Resolve returned zero identity")
	}

	second, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve (second read): %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("identity changed across reopen: %s != %s", first, second)
	}
}

func TestResolveDistinguishesFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	if err := os.WriteFile(a, []byte("same contents\n"), 0o644); err != nil {
		t.Fatalf("WriteFile a: %v", err)
	}
	if err := os.WriteFile(b, []byte("same contents\n"), 0o644); err != nil {
		t.Fatalf("WriteFile b: %v", err)
	}

	idA, err := Resolve(a)
	if err != nil {
		t.Fatalf("Resolve a: %v", err)
	}
	idB, err := Resolve(b)
	if err != nil {
		t.Fatalf("Resolve b: %v", err)
	}
	if idA.String() == idB.String() {
		t.Fatalf("distinct files resolved to the same identity: %s", idA)
	}
}

func TestResolveSurvivesRename(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "current.log")
	renamed := filepath.Join(dir, "current.log.1")
	if err := os.WriteFile(orig, []byte("rotating\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	before, err := Resolve(orig)
	if err != nil {
		t.Fatalf("Resolve before rename: %v", err)
	}
	if err := os.Rename(orig, renamed); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	after, err := Resolve(renamed)
	if err != nil {
		t.Fatalf("Resolve after rename: %v", err)
	}
	if before.String() != after.String() {
		t.Fatalf("identity did not survive rename on this platform: %s != %s", before, after)
	}
}
