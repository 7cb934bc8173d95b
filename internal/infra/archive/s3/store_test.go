package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"eicrcore/internal/archive/core"
)

func TestMockStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests(0)
	if s.Driver() != core.DriverS3 || s.Bucket() != MockBucket {
		t.Fatalf("unexpected store identity %s %s", s.Driver(), s.Bucket())
	}
	key := "forms/f1/scans/test-1.json"
	info, err := s.Put(ctx, key, strings.NewReader(`{"circuits":[]}`), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != key || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	_, rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"circuits":[]}` {
		t.Fatalf("unexpected body %q", body)
	}
	url, err := s.PresignURL(ctx, key, core.SignedURLOptions{})
	if err != nil || !strings.Contains(url, key) {
		t.Fatalf("presign: %q %v", url, err)
	}
	if _, err := s.PresignURL(ctx, key, core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
	ok, err := s.Delete(ctx, key)
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := s.Delete(ctx, key); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, key); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMockStoreListPages(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests(2)
	for _, k := range []string{"forms/a/scans/3", "forms/a/scans/1", "forms/a/scans/2", "forms/b/scans/1"} {
		if _, err := s.Put(ctx, k, strings.NewReader("{}"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := s.List(ctx, "forms/a/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Key != "forms/a/scans/1" || list[2].Key != "forms/a/scans/3" {
		t.Fatalf("unexpected listing %+v", list)
	}
}

func TestPrefixIsAppliedAndStripped(t *testing.T) {
	base := NewMockForTests(0)
	s := newStore(base.client, MockBucket, "/tenant/")
	ctx := context.Background()
	if _, err := s.Put(ctx, "forms/x.json", strings.NewReader("{}"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := base.Head(ctx, "tenant/forms/x.json"); err != nil {
		t.Fatalf("expected prefixed object: %v", err)
	}
	list, _ := s.List(ctx, "forms/")
	if len(list) != 1 || list[0].Key != "forms/x.json" {
		t.Fatalf("unexpected listing %+v", list)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}
