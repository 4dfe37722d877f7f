package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeFrame writes a solid-color PNG frame into dir and returns its path.
func writeFrame(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create frame: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}
	return path
}

func TestNewFrameCache(t *testing.T) {
	cache := NewFrameCache()
	if cache == nil {
		t.Fatal("NewFrameCache returned nil")
	}
	if cache.Len() != 0 {
		t.Fatalf("new cache should be empty, has %d", cache.Len())
	}
}

func TestFrameCache_Load(t *testing.T) {
	cache := NewFrameCache()
	path := writeFrame(t, t.TempDir(), "f000001.png", 100, 80, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	bounds := img1.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 80 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x80", bounds.Dx(), bounds.Dy())
	}

	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached frame")
	}
}

func TestFrameCache_Load_Errors(t *testing.T) {
	cache := NewFrameCache()

	if _, err := cache.Load("/nonexistent/path/f000001.jpg"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	bad := filepath.Join(t.TempDir(), "f000001.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
}

func TestFrameCache_EvictAndClear(t *testing.T) {
	cache := NewFrameCache()
	dir := t.TempDir()
	p1 := writeFrame(t, dir, "f000001.png", 10, 10, color.White)
	p2 := writeFrame(t, dir, "f000002.png", 10, 10, color.Black)

	for _, p := range []string{p1, p2} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(p1)
	cache.mu.RLock()
	_, exists := cache.images[p1]
	cache.mu.RUnlock()
	if exists {
		t.Error("Evict did not remove frame from cache")
	}
	if cache.Len() != 1 {
		t.Errorf("Len after Evict: got %d, want 1", cache.Len())
	}

	cache.Evict("/nonexistent/path")
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Clear did not empty cache: %d frames remain", cache.Len())
	}
}

func TestFrameCache_ConcurrentAccess(t *testing.T) {
	cache := NewFrameCache()
	path := writeFrame(t, t.TempDir(), "f000001.png", 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errors := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errors <- err
			}
		}()
	}

	wg.Wait()
	close(errors)

	for err := range errors {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestListFrames(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, dir, "f000002.png", 4, 4, color.White)
	writeFrame(t, dir, "f000001.png", 4, 4, color.White)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	frames, err := ListFrames(dir, "*.png")
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("frames: got %d, want 2", len(frames))
	}
	if filepath.Base(frames[0]) != "f000001.png" {
		t.Errorf("frames not sorted: first is %s", frames[0])
	}

	empty, err := ListFrames(dir, "*.jpg")
	if err != nil {
		t.Fatalf("ListFrames failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no jpg frames, got %d", len(empty))
	}
}

func TestListFrames_NotADirectory(t *testing.T) {
	if _, err := ListFrames("/nonexistent/session", "*.jpg"); err == nil {
		t.Error("ListFrames should fail for a missing directory")
	}

	file := writeFrame(t, t.TempDir(), "f000001.png", 4, 4, color.White)
	if _, err := ListFrames(file, "*.jpg"); err == nil {
		t.Error("ListFrames should fail for a regular file")
	}
}

func TestFramePath(t *testing.T) {
	got := FramePath("/data/287_Sh_1", "f%06d.jpg", 42)
	want := filepath.Join("/data/287_Sh_1", "f000042.jpg")
	if got != want {
		t.Errorf("FramePath: got %s, want %s", got, want)
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewFrameCache()
	path := writeFrame(t, t.TempDir(), "f000001.png", 300, 200, color.RGBA{100, 100, 100, 255})

	dims, err := GetDimensions(cache, path)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 300 || dims.Height != 200 {
		t.Errorf("dimensions: got %dx%d, want 300x200", dims.Width, dims.Height)
	}

	if _, err := GetDimensions(cache, "/nonexistent/image.png"); err == nil {
		t.Error("GetDimensions should fail for non-existent file")
	}
}
