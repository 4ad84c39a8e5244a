package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"lifeexp/internal/blob/core"
)

func TestStoreLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()
	md := map[string]string{"format": "png"}

	info, err := s.Put(ctx, "exports/x/scatter.png", strings.NewReader("png"), core.PutOptions{ContentType: "image/png", Metadata: md})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	md["format"] = "mutated"
	if info.Size != 3 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}

	head, err := s.Head(ctx, "exports/x/scatter.png")
	if err != nil || head.Metadata["format"] != "png" {
		t.Fatalf("head: %+v %v", head, err)
	}
	head.Metadata["format"] = "changed"
	again, _ := s.Head(ctx, "exports/x/scatter.png")
	if again.Metadata["format"] != "png" {
		t.Fatalf("metadata leaked through Head copy")
	}

	_, rc, err := s.Get(ctx, "exports/x/scatter.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "png" {
		t.Fatalf("unexpected body %q", data)
	}

	if _, err := s.Put(ctx, "exports/x/scatter.png", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if ok, _ := s.Delete(ctx, "exports/x/scatter.png"); !ok {
		t.Fatalf("expected delete to report existing object")
	}
	if ok, _ := s.Delete(ctx, "exports/x/scatter.png"); ok {
		t.Fatalf("second delete should report false")
	}
	if _, _, err := s.Get(ctx, "exports/x/scatter.png"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListIsSortedAndFiltered(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, key := range []string{"b/2", "a/1", "b/1", "c"} {
		if _, err := s.Put(ctx, key, strings.NewReader(key), core.PutOptions{}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	infos, err := s.List(ctx, "b/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "b/1" || infos[1].Key != "b/2" {
		t.Fatalf("unexpected list %+v", infos)
	}
	all, _ := s.List(ctx, "")
	if len(all) != 4 || all[0].Key != "a/1" {
		t.Fatalf("unexpected full list %+v", all)
	}
}

func TestConcurrentPutsOfOneKey(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Put(ctx, "same", strings.NewReader("x"), core.PutOptions{}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one successful put, got %d", wins)
	}
}

func TestPresignAndInvalidKey(t *testing.T) {
	s := New()
	if _, err := s.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := s.Put(context.Background(), "", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
