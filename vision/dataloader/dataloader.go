package dataloader

import (
	"fmt"
	"image"
	"math/rand"
	"sync"
	"time"

	"github.com/tsawler/go-mvtec/vision/dataset"
	"github.com/tsawler/go-mvtec/vision/preprocessing"
)

// Dataset is the indexed collection a DataLoader reads from.
// *dataset.MVTecDataset satisfies it.
type Dataset interface {
	Len() int
	Get(index int) (image.Image, dataset.Label, error)
}

// DataLoader serves a dataset in batches of CHW float32 images and int32 labels
type DataLoader struct {
	dataset   Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	indices   []int
	position  int
	mu        sync.Mutex

	// Buffer reuse for memory efficiency
	imageDataBuffer []float32
	labelDataBuffer []int32

	// Optional cache of processed items, possibly shared with other loaders
	cacheManager *CacheManager
	ownedCache   bool

	processor *preprocessing.ImageProcessor
	itemSize  int // float32 elements per image, fixed by the first item served
}

// Config holds configuration for DataLoader
type Config struct {
	BatchSize int
	Shuffle   bool
	// Seed makes shuffling reproducible; 0 seeds from the clock
	Seed int64
	// MaxCacheSize enables an owned cache of processed items; 0 disables caching
	MaxCacheSize int
	// CacheManager is an optional shared cache; it takes precedence over MaxCacheSize
	CacheManager *CacheManager
}

// NewDataLoader creates a new data loader
func NewDataLoader(ds Dataset, config Config) (*DataLoader, error) {
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", config.BatchSize)
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}

	dl := &DataLoader{
		dataset:   ds,
		batchSize: config.BatchSize,
		shuffle:   config.Shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		indices:   indices,
		processor: preprocessing.NewImageProcessor(),
	}

	switch {
	case config.CacheManager != nil:
		dl.cacheManager = config.CacheManager
	case config.MaxCacheSize > 0:
		dl.cacheManager = NewCacheManager(config.MaxCacheSize)
		dl.ownedCache = true
	}

	if dl.shuffle {
		dl.shuffleIndices()
	}
	return dl, nil
}

func (dl *DataLoader) shuffleIndices() {
	dl.rng.Shuffle(len(dl.indices), func(i, j int) {
		dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
	})
}

// Reset resets the data loader to the beginning
func (dl *DataLoader) Reset() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.position = 0
	if dl.shuffle {
		dl.shuffleIndices()
	}
}

// NextBatch loads the next batch. It returns a zero batch size once the
// epoch is exhausted. The returned slices are reused by the next call.
func (dl *DataLoader) NextBatch() (imageData []float32, labelData []int32, actualBatchSize int, err error) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	remaining := len(dl.indices) - dl.position
	if remaining <= 0 {
		return nil, nil, 0, nil // No more data
	}

	batchSize := dl.batchSize
	if remaining < batchSize {
		batchSize = remaining
	}

	for i := 0; i < batchSize; i++ {
		idx := dl.indices[dl.position+i]
		data, label, err := dl.loadItem(idx)
		if err != nil {
			return nil, nil, 0, err
		}

		if dl.itemSize == 0 {
			dl.itemSize = len(data)
		} else if len(data) != dl.itemSize {
			return nil, nil, 0, fmt.Errorf("item %d has %d values, expected %d", idx, len(data), dl.itemSize)
		}
		if i == 0 {
			dl.ensureBuffers(batchSize)
		}

		copy(dl.imageDataBuffer[i*dl.itemSize:(i+1)*dl.itemSize], data)
		dl.labelDataBuffer[i] = label
	}
	dl.position += batchSize

	return dl.imageDataBuffer[:batchSize*dl.itemSize], dl.labelDataBuffer[:batchSize], batchSize, nil
}

// ensureBuffers grows the batch buffers only if needed
func (dl *DataLoader) ensureBuffers(batchSize int) {
	if required := batchSize * dl.itemSize; len(dl.imageDataBuffer) < required {
		dl.imageDataBuffer = make([]float32, required)
	}
	if len(dl.labelDataBuffer) < batchSize {
		dl.labelDataBuffer = make([]int32, batchSize)
	}
}

// loadItem reads one item through the cache when one is configured
func (dl *DataLoader) loadItem(idx int) ([]float32, int32, error) {
	if dl.cacheManager != nil {
		if data, label, ok := dl.cacheManager.Get(idx); ok {
			return data, int32(label), nil
		}
	}

	img, label, err := dl.dataset.Get(idx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load item %d: %w", idx, err)
	}
	processed := dl.processor.Process(img)

	if dl.cacheManager != nil {
		dl.cacheManager.Put(idx, processed.Data, label)
	}
	return processed.Data, int32(label), nil
}

// NumBatches returns the number of batches in one epoch
func (dl *DataLoader) NumBatches() int {
	return (len(dl.indices) + dl.batchSize - 1) / dl.batchSize
}

// Stats returns cache statistics
func (dl *DataLoader) Stats() string {
	if dl.cacheManager == nil {
		return "Cache: disabled"
	}
	return dl.cacheManager.Stats().String()
}

// Progress returns the current progress through the dataset
func (dl *DataLoader) Progress() (current, total int) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.position, len(dl.indices)
}

// ClearCache clears the cache if this DataLoader owns it
func (dl *DataLoader) ClearCache() {
	if dl.ownedCache {
		dl.cacheManager.Clear()
	}
}

// GetCacheManager returns the cache manager for sharing between DataLoaders
func (dl *DataLoader) GetCacheManager() *CacheManager {
	return dl.cacheManager
}
