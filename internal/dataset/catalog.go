package dataset

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/camerabench/captionkit/internal/annotation"
	"github.com/camerabench/captionkit/pkg/log"
)

// DefaultCacheTTL bounds how stale a cached dataset may get between the
// periodic refreshes.
const DefaultCacheTTL = 5 * time.Minute

type cachedDataset struct {
	dataset  *Dataset
	loadedAt time.Time
}

// Catalog serves datasets from disk with a TTL cache. Concurrent requests
// for the same dataset share one load via singleflight.
type Catalog struct {
	root        string
	annotations *annotation.Store
	ttl         time.Duration

	mu    sync.RWMutex
	cache map[string]cachedDataset
	group singleflight.Group
}

func NewCatalog(root string, annotations *annotation.Store, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Catalog{
		root:        root,
		annotations: annotations,
		ttl:         ttl,
		cache:       make(map[string]cachedDataset),
	}
}

// List enumerates the datasets on disk. Not cached; directory scans are
// cheap compared to payload loads.
func (c *Catalog) List() ([]Info, error) {
	return ListDatasets(c.root)
}

// Load returns a dataset with fresh annotation status on every sample.
// The payload itself is cached; annotation merging always rereads the
// store so a save shows up immediately.
func (c *Catalog) Load(name string) (*Dataset, error) {
	ds, err := c.loadPayload(name)
	if err != nil || ds == nil {
		return nil, err
	}

	annotations, err := c.annotations.List(name)
	if err != nil {
		return nil, fmt.Errorf("load annotations for %s: %w", name, err)
	}

	merged := &Dataset{Name: ds.Name, Split: ds.Split, Samples: make([]Sample, len(ds.Samples))}
	for i, sample := range ds.Samples {
		clone := make(Sample, len(sample)+1)
		for key, value := range sample {
			clone[key] = value
		}
		clone.SetAnnotationStatus(annotations[i].Status())
		merged.Samples[i] = clone
	}
	return merged, nil
}

func (c *Catalog) loadPayload(name string) (*Dataset, error) {
	c.mu.RLock()
	entry, ok := c.cache[name]
	c.mu.RUnlock()
	if ok && time.Since(entry.loadedAt) < c.ttl {
		return entry.dataset, nil
	}

	result, err, _ := c.group.Do(name, func() (any, error) {
		ds, err := LoadDataset(c.root, name)
		if err != nil {
			return nil, err
		}
		if ds != nil {
			c.mu.Lock()
			c.cache[name] = cachedDataset{dataset: ds, loadedAt: time.Now()}
			c.mu.Unlock()
		}
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Dataset), nil
}

// Invalidate drops every cached payload. Wired to the refresh cron so
// dataset edits on disk show up without a restart.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	n := len(c.cache)
	c.cache = make(map[string]cachedDataset)
	c.mu.Unlock()
	if n > 0 {
		log.Debug("Invalidated %d cached datasets", n)
	}
}
