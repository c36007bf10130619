package preprocessing

import (
	"image"
	"sync"
)

// ProcessedImage represents a preprocessed image ready for neural network input
type ProcessedImage struct {
	Data     []float32
	Width    int
	Height   int
	Channels int
}

// ImageProcessor converts images into CHW float32 tensors, reusing its
// scratch buffer between calls.
type ImageProcessor struct {
	mu            sync.Mutex
	processBuffer []float32
}

// NewImageProcessor creates a new image processor
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Process returns img in CHW format (channels, height, width) normalized to [0, 1]
func (p *ImageProcessor) Process(img image.Image) *ProcessedImage {
	pix, h, w, c := ToSample(img)

	p.mu.Lock()
	defer p.mu.Unlock()

	requiredSize := c * h * w
	if len(p.processBuffer) < requiredSize {
		p.processBuffer = make([]float32, requiredSize)
	}
	data := p.processBuffer[:requiredSize]

	plane := h * w
	for i := 0; i < plane; i++ {
		for ch := 0; ch < c; ch++ {
			data[ch*plane+i] = float32(pix[i*c+ch]) / 255.0
		}
	}

	// Create a copy since we're returning a slice of the reusable buffer
	result := make([]float32, len(data))
	copy(result, data)

	return &ProcessedImage{
		Data:     result,
		Width:    w,
		Height:   h,
		Channels: c,
	}
}
