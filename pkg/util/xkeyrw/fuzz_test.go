package xkeyrw

import (
	"context"
	"errors"
	"testing"
)

func FuzzAcquireUnlock(f *testing.F) {
	f.Add("key1", uint8(0))
	f.Add("", uint8(1))
	f.Add("very-long-key-name-that-might-cause-issues-with-hashing", uint8(0))
	f.Add("key/with/slashes", uint8(1))
	f.Add("key with spaces", uint8(0))
	f.Add("中文key", uint8(1))
	f.Add("key1", uint8(42))

	f.Fuzz(func(t *testing.T, key string, rawMode uint8) {
		l := newForTest(t)
		mode := Mode(rawMode)

		h, err := l.Acquire(context.Background(), key, mode)
		if !mode.valid() {
			if !errors.Is(err, ErrInvalidMode) {
				t.Fatalf("Acquire with mode %d: want ErrInvalidMode, got %v", rawMode, err)
			}
			return
		}
		if key == "" {
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("Acquire with empty key: want ErrInvalidKey, got %v", err)
			}
			return
		}
		if err != nil {
			t.Fatalf("Acquire failed for key %q: %v", key, err)
		}
		if h.Key() != key {
			t.Fatalf("Key mismatch: got %q, want %q", h.Key(), key)
		}
		if h.Mode() != mode {
			t.Fatalf("Mode mismatch: got %v, want %v", h.Mode(), mode)
		}
		h.Unlock()
		h.Unlock() // 幂等
	})
}

func FuzzTryAcquireUnlock(f *testing.F) {
	f.Add("key1")
	f.Add("a/b/c")
	f.Add("中文key")

	f.Fuzz(func(t *testing.T, key string) {
		if key == "" {
			return
		}
		l := newForTest(t)

		h, err := l.TryAcquire(key, ModeWrite)
		if err != nil {
			t.Fatalf("TryAcquire failed for key %q: %v", key, err)
		}

		// 写持有期间，同 key 的读写 TryAcquire 均应被拒
		if _, err := l.TryAcquire(key, ModeRead); !errors.Is(err, ErrLockOccupied) {
			t.Fatalf("TryAcquire read for held key %q: want ErrLockOccupied, got %v", key, err)
		}
		if _, err := l.TryAcquire(key, ModeWrite); !errors.Is(err, ErrLockOccupied) {
			t.Fatalf("TryAcquire write for held key %q: want ErrLockOccupied, got %v", key, err)
		}

		h.Unlock()
	})
}
