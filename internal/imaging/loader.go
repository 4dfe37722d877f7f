package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
)

// FrameCache provides thread-safe caching of decoded frames to avoid redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once a frame
// is loaded, subsequent Load() calls for the same path return the cached copy without
// disk I/O. Re-processing the current frame after a manual correction therefore
// costs no decode.
//
// # Memory Management
//
// Cached frames remain in memory until explicitly removed via Evict() or Clear().
// A session walking through thousands of frames should evict frames it has left
// behind; tracking.Session does this on every navigation.
//
// # Example Usage
//
//	cache := imaging.NewFrameCache()
//	img, err := cache.Load("/data/287_Sh_1/f000001.jpg")
//	if err != nil {
//	    return err
//	}
//	// Use img...
//	cache.Evict("/data/287_Sh_1/f000001.jpg")
type FrameCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewFrameCache creates and initializes a new empty frame cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves a frame from the cache or decodes it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative file path to the frame. Any format registered
//     with the imaging library (JPEG, PNG, GIF, BMP, TIFF) is accepted.
//
// Returns:
//   - image.Image: The decoded frame, with EXIF orientation applied.
//   - error: Non-nil if the file cannot be opened or decoded.
//
// The frame is cached using the exact path string provided.
func (c *FrameCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load frame: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached frames.
func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all frames from the cache, freeing the associated memory.
func (c *FrameCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific frame from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
func (c *FrameCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ListFrames returns the sorted paths of every file in dir matching pattern.
//
// Only the count matters to a session; frames themselves are addressed by
// index through FramePath. A directory that cannot be read is an error; a
// directory without matches returns an empty slice.
func ListFrames(dir, pattern string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat frame directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid frame pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// FramePath builds the path of the 1-based frame index using a fixed-width
// name format such as "f%06d.jpg".
func FramePath(dir, nameFormat string, index int) string {
	return filepath.Join(dir, fmt.Sprintf(nameFormat, index))
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of a frame, loading it into the cache
// if not already present.
func GetDimensions(cache *FrameCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &DimensionsResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
