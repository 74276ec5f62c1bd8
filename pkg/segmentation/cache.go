// Package segmentation caches the confidence map of the current source image.
//
// The cache holds a single entry keyed by image identity. At most one
// segmentation runs at a time; concurrent callers queue behind it and are
// served from the cache when they ask for the same image.
package segmentation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/menta2k/portrait-fx/pkg/client"
	"github.com/menta2k/portrait-fx/pkg/mask"
)

var (
	// ErrNoSegmenter is returned by Get when the cache has no segmenter
	ErrNoSegmenter = errors.New("segmentation: no segmenter configured")
	// ErrEmptyResult is returned when the segmenter succeeds without a map
	ErrEmptyResult = errors.New("segmentation: segmenter returned no confidence map")
)

// Stats counts cache lookups
type Stats struct {
	Hits   int
	Misses int
}

// Cache is a single-entry confidence map cache
type Cache struct {
	segmenter client.Segmenter
	slot      chan struct{}

	mu         sync.Mutex
	key        string
	value      *mask.ConfidenceMap
	generation uint64
	stats      Stats
}

// NewCache creates a cache backed by segmenter
func NewCache(segmenter client.Segmenter) *Cache {
	return &Cache{
		segmenter: segmenter,
		slot:      make(chan struct{}, 1),
	}
}

// Get returns the confidence map for the image identified by key, running
// the segmenter on a miss. A result arriving after ctx is cancelled is
// discarded.
func (c *Cache) Get(ctx context.Context, key string, img image.Image) (*mask.ConfidenceMap, error) {
	if c.segmenter == nil {
		return nil, ErrNoSegmenter
	}

	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.slot }()

	c.mu.Lock()
	if c.value != nil && c.key == key {
		c.stats.Hits++
		cm := c.value
		c.mu.Unlock()
		return cm, nil
	}
	c.stats.Misses++
	generation := c.generation
	c.mu.Unlock()

	cm, err := c.segmenter.Segment(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("segment image %s: %w", key, err)
	}
	if cm == nil {
		return nil, ErrEmptyResult
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == generation {
		c.key = key
		c.value = cm
	}
	c.mu.Unlock()
	return cm, nil
}

// Peek returns the cached map for key without segmenting
func (c *Cache) Peek(key string) (*mask.ConfidenceMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == nil || c.key != key {
		return nil, false
	}
	return c.value, true
}

// Invalidate drops the cached entry. A segmentation already in flight will
// not repopulate the cache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = ""
	c.value = nil
	c.generation++
}

// Stats returns hit and miss counts
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
