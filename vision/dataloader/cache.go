package dataloader

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/tsawler/go-mvtec/vision/dataset"
)

// CacheManager keeps the most recently served items of a dataset, already
// converted to CHW float32, keyed by dataset index. One manager can back
// several DataLoaders over the same dataset.
type CacheManager struct {
	mu       sync.Mutex
	order    *list.List // front is most recently used
	byIndex  map[int]*list.Element
	capacity int

	hits, misses int64
}

// processedItem is the value stored in each list element
type processedItem struct {
	index int
	data  []float32
	label dataset.Label
}

// NewCacheManager creates a cache holding at most capacity items
func NewCacheManager(capacity int) *CacheManager {
	return &CacheManager{
		order:    list.New(),
		byIndex:  make(map[int]*list.Element),
		capacity: capacity,
	}
}

// Get returns the cached item for index and marks it as recently used
func (cm *CacheManager) Get(index int) ([]float32, dataset.Label, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	elem, ok := cm.byIndex[index]
	if !ok {
		cm.misses++
		return nil, 0, false
	}
	cm.hits++
	cm.order.MoveToFront(elem)
	item := elem.Value.(*processedItem)
	return item.data, item.label, true
}

// Put stores an item, replacing any previous value for index, and evicts the
// least recently used items beyond capacity.
func (cm *CacheManager) Put(index int, data []float32, label dataset.Label) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if elem, ok := cm.byIndex[index]; ok {
		item := elem.Value.(*processedItem)
		item.data, item.label = data, label
		cm.order.MoveToFront(elem)
		return
	}

	cm.byIndex[index] = cm.order.PushFront(&processedItem{index: index, data: data, label: label})
	for cm.order.Len() > cm.capacity {
		oldest := cm.order.Remove(cm.order.Back()).(*processedItem)
		delete(cm.byIndex, oldest.index)
	}
}

// Stats returns a snapshot of the cache counters
func (cm *CacheManager) Stats() CacheStats {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return CacheStats{
		Size:    cm.order.Len(),
		MaxSize: cm.capacity,
		Hits:    cm.hits,
		Misses:  cm.misses,
	}
}

// Clear drops every cached item. Hit and miss counters are cumulative and
// survive a Clear.
func (cm *CacheManager) Clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.order.Init()
	clear(cm.byIndex)
}

// CacheStats holds cache statistics
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    int64
	Misses  int64
}

// HitRate is the share of lookups that hit, as a percentage
func (cs CacheStats) HitRate() float64 {
	if cs.Hits+cs.Misses == 0 {
		return 0
	}
	return float64(cs.Hits) / float64(cs.Hits+cs.Misses) * 100
}

func (cs CacheStats) String() string {
	return fmt.Sprintf("Cache: %d/%d items, Hits: %d, Misses: %d, Hit Rate: %.1f%%",
		cs.Size, cs.MaxSize, cs.Hits, cs.Misses, cs.HitRate())
}
