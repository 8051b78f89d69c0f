package media

import (
	"os"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	handle, err := Acquire(KindAudio, []byte("payload"))
	if err != nil {
		t.Fatalf("expected acquire to succeed, got %v", err)
	}

	path := handle.ResourceURL()
	if path == "" {
		t.Fatalf("expected a resource URL for a live handle")
	}
	if data, err := os.ReadFile(path); err != nil || string(data) != "payload" {
		t.Fatalf("expected resource to hold the blob, got %q, %v", data, err)
	}

	handle.Release()
	if !handle.Released() {
		t.Fatalf("expected handle to report released")
	}
	if handle.ResourceURL() != "" {
		t.Fatalf("expected resource URL to be empty after release")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected resource to be revoked, stat err: %v", err)
	}

	// Second release must be a no-op, not a double revoke.
	handle.Release()
}

func TestStoreReplacementReleasesPrior(t *testing.T) {
	store := NewStore()

	first, err := Acquire(KindVideo, []byte("idle"))
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	store.Install("idle", first)

	second, err := Acquire(KindVideo, []byte("idle-v2"))
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	store.Install("idle", second)

	if !first.Released() {
		t.Fatalf("expected prior handle to be released on replacement")
	}
	if second.Released() {
		t.Fatalf("expected new handle to stay live")
	}
	if store.Get("idle") != second {
		t.Fatalf("expected store to hold the replacement handle")
	}

	store.ReleaseAll()
}

func TestStoreReleaseAll(t *testing.T) {
	store := NewStore()

	audio, _ := Acquire(KindAudio, []byte("a"))
	video, _ := Acquire(KindVideo, []byte("v"))
	store.Install("reply", audio)
	store.Install("talking", video)

	store.ReleaseAll()

	if !audio.Released() || !video.Released() {
		t.Fatalf("expected all handles released on teardown")
	}
	if store.Get("reply") != nil || store.Get("talking") != nil {
		t.Fatalf("expected store to be empty after ReleaseAll")
	}
}

func TestStoreInstallSameHandleTwice(t *testing.T) {
	store := NewStore()

	handle, _ := Acquire(KindAudio, []byte("a"))
	store.Install("reply", handle)
	store.Install("reply", handle)

	if handle.Released() {
		t.Fatalf("reinstalling the same handle must not release it")
	}

	store.ReleaseAll()
}
