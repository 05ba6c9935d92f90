package tooling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type fakeBackend struct {
	descs []Descriptor
	err   error
}

func (f *fakeBackend) Discover(_ context.Context) ([]Descriptor, error) {
	return f.descs, f.err
}

func (f *fakeBackend) Invoke(_ context.Context, name string, _ map[string]any) (string, error) {
	return "", fmt.Errorf("%s: not implemented", name)
}

func (f *fakeBackend) Close() error { return nil }

func TestDirectoryReplace(t *testing.T) {
	d := NewDirectory()
	d.Replace([]Descriptor{
		{Name: "filesystem_operation", Description: "file ops"},
		{Name: "database_query", Description: "queries"},
	})

	if d.Len() != 2 {
		t.Fatalf("len = %d", d.Len())
	}
	if _, ok := d.Get("database_query"); !ok {
		t.Error("database_query missing")
	}
	if _, ok := d.Get("nope"); ok {
		t.Error("unexpected tool")
	}

	// A second replace discards the old set entirely.
	d.Replace([]Descriptor{{Name: "api_call"}})
	if d.Len() != 1 {
		t.Fatalf("len after replace = %d", d.Len())
	}
	if _, ok := d.Get("filesystem_operation"); ok {
		t.Error("stale tool survived replace")
	}
}

func TestDirectoryListSorted(t *testing.T) {
	d := NewDirectory()
	d.Replace([]Descriptor{{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"}})

	list := d.List()
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	if list[0].Name != "alpha" || list[2].Name != "zeta" {
		t.Errorf("not sorted: %v", list)
	}
}

func TestDirectoryRefreshUnreachableBackend(t *testing.T) {
	d := NewDirectory()
	d.Replace([]Descriptor{{Name: "old"}})

	err := d.Refresh(context.Background(), &fakeBackend{err: errors.New("no server")})
	if err == nil {
		t.Fatal("expected error")
	}
	// Unreachable backend means zero tools, not a stale set.
	if d.Len() != 0 {
		t.Errorf("len = %d, want 0", d.Len())
	}
}

func TestDirectoryConcurrentReaders(t *testing.T) {
	d := NewDirectory()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// Readers must only ever see a complete set: 0 or 2 tools.
				if n := d.Len(); n != 0 && n != 2 {
					t.Errorf("observed partial directory of size %d", n)
					return
				}
				_ = d.List()
			}
		}()
	}

	for i := 0; i < 100; i++ {
		d.Replace([]Descriptor{{Name: "a"}, {Name: "b"}})
		d.Replace(nil)
	}
	close(stop)
	wg.Wait()
}
