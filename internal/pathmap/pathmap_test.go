package pathmap

import (
	"errors"
	"testing"
)

func testResolver() *Resolver {
	return New([]Mapping{
		{Virtual: "/project", Real: "/home/me/work/project"},
		{Virtual: "/project/vendor", Real: "/opt/cache/vendor"},
		{Virtual: "/tmp", Real: "/var/scratch"},
	})
}

func TestResolveLongestPrefixWins(t *testing.T) {
	r := testResolver()

	tests := []struct {
		virtual string
		want    string
	}{
		{"/project/main.go", "/home/me/work/project/main.go"},
		{"/project/vendor/lib.go", "/opt/cache/vendor/lib.go"},
		{"/project", "/home/me/work/project"},
		{"/project/vendor", "/opt/cache/vendor"},
		{"/tmp/out.txt", "/var/scratch/out.txt"},
	}

	for _, tt := range tests {
		got, err := r.Resolve(tt.virtual)
		if err != nil {
			t.Errorf("Resolve(%q) error: %v", tt.virtual, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.virtual, got, tt.want)
		}
	}
}

func TestResolveNoPrefixCollision(t *testing.T) {
	r := New([]Mapping{{Virtual: "/a", Real: "/real/a"}})

	// /apple must not match the /a root.
	if _, err := r.Resolve("/apple/x"); !errors.Is(err, ErrNoMapping) {
		t.Errorf("expected ErrNoMapping for /apple/x, got %v", err)
	}
}

func TestResolveUnmapped(t *testing.T) {
	r := testResolver()

	_, err := r.Resolve("/elsewhere/file")
	if !errors.Is(err, ErrNoMapping) {
		t.Errorf("expected ErrNoMapping, got %v", err)
	}

	_, err = r.Resolve("")
	if !errors.Is(err, ErrNoMapping) {
		t.Errorf("expected ErrNoMapping for empty path, got %v", err)
	}
}

func TestResolveEmptyTable(t *testing.T) {
	r := New(nil)

	if _, err := r.Resolve("/any/path"); !errors.Is(err, ErrNoMapping) {
		t.Errorf("expected ErrNoMapping with no mappings configured, got %v", err)
	}
}

func TestVirtualize(t *testing.T) {
	r := testResolver()

	got, ok := r.Virtualize("/home/me/work/project/sub/x.go")
	if !ok || got != "/project/sub/x.go" {
		t.Errorf("Virtualize = %q, %v; want /project/sub/x.go, true", got, ok)
	}

	got, ok = r.Virtualize("/opt/cache/vendor")
	if !ok || got != "/project/vendor" {
		t.Errorf("Virtualize = %q, %v; want /project/vendor, true", got, ok)
	}

	if _, ok := r.Virtualize("/somewhere/else"); ok {
		t.Error("expected Virtualize to fail for unmapped real path")
	}
}

func TestRewriteDisplay(t *testing.T) {
	r := testResolver()

	in := "wrote /home/me/work/project/a.txt and /var/scratch/b.txt"
	want := "wrote /project/a.txt and /tmp/b.txt"
	if got := r.RewriteDisplay(in); got != want {
		t.Errorf("RewriteDisplay = %q, want %q", got, want)
	}
}

func TestFromSpec(t *testing.T) {
	r := FromSpec("/v1:/real/one ; /v2:/real/two ;; bad-entry", "")

	got, err := r.Resolve("/v1/x")
	if err != nil || got != "/real/one/x" {
		t.Errorf("Resolve(/v1/x) = %q, %v", got, err)
	}
	got, err = r.Resolve("/v2")
	if err != nil || got != "/real/two" {
		t.Errorf("Resolve(/v2) = %q, %v", got, err)
	}
	if len(r.Mappings()) != 2 {
		t.Errorf("expected 2 mappings, got %d", len(r.Mappings()))
	}
}

func TestFromSpecTmpDirDefault(t *testing.T) {
	r := FromSpec("/p:/real/p", "/var/scratch")
	got, err := r.Resolve("/tmp/file")
	if err != nil || got != "/var/scratch/file" {
		t.Errorf("Resolve(/tmp/file) = %q, %v", got, err)
	}

	// An explicit /tmp mapping beats the tmpDir default.
	r = FromSpec("/tmp:/explicit", "/var/scratch")
	got, err = r.Resolve("/tmp/file")
	if err != nil || got != "/explicit/file" {
		t.Errorf("Resolve(/tmp/file) = %q, %v", got, err)
	}
}

func TestReload(t *testing.T) {
	r := FromSpec("/old:/real/old", "")
	if _, err := r.Resolve("/new/x"); err == nil {
		t.Fatal("expected /new to be unmapped before reload")
	}

	r.Reload("/new:/real/new", "")

	if _, err := r.Resolve("/old/x"); !errors.Is(err, ErrNoMapping) {
		t.Error("old mapping should be gone after reload")
	}
	got, err := r.Resolve("/new/x")
	if err != nil || got != "/real/new/x" {
		t.Errorf("Resolve(/new/x) = %q, %v", got, err)
	}
}
