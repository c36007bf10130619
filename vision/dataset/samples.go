package dataset

import "fmt"

// Samples holds every image of a split in one contiguous NHWC uint8 array.
type Samples struct {
	data []uint8
	n    int
	h    int
	w    int
	c    int
}

// samplesBuilder appends decoded images into one array, enforcing that
// every image has the shape of the first.
type samplesBuilder struct {
	s        *Samples
	capacity int
	first    string
}

func newSamplesBuilder(capacity int) *samplesBuilder {
	return &samplesBuilder{s: &Samples{}, capacity: capacity}
}

func (b *samplesBuilder) add(path string, pix []uint8, h, w, c int) error {
	if b.s.n == 0 {
		b.s.h, b.s.w, b.s.c = h, w, c
		b.s.data = make([]uint8, 0, h*w*c*b.capacity)
		b.first = path
	} else if h != b.s.h || w != b.s.w || c != b.s.c {
		return fmt.Errorf("%w: %s is %dx%dx%d, expected %dx%dx%d (from %s)",
			ErrShapeMismatch, path, h, w, c, b.s.h, b.s.w, b.s.c, b.first)
	}
	b.s.data = append(b.s.data, pix...)
	b.s.n++
	return nil
}

func (b *samplesBuilder) build() *Samples {
	return b.s
}

// Shape returns (N, H, W, C)
func (s *Samples) Shape() (n, h, w, c int) {
	return s.n, s.h, s.w, s.c
}

// Len returns the number of samples
func (s *Samples) Len() int {
	return s.n
}

// ItemSize returns the number of bytes per sample (H*W*C)
func (s *Samples) ItemSize() int {
	return s.h * s.w * s.c
}

// At returns the HWC pixels of sample i. The slice aliases the array and
// must not be modified.
func (s *Samples) At(i int) ([]uint8, error) {
	if i < 0 || i >= s.n {
		return nil, fmt.Errorf("%w: sample %d not in [0, %d)", ErrIndexOutOfRange, i, s.n)
	}
	size := s.ItemSize()
	return s.data[i*size : (i+1)*size : (i+1)*size], nil
}

// Data returns the whole NHWC array. It must not be modified.
func (s *Samples) Data() []uint8 {
	return s.data
}

// String formats the shape the way array libraries print it
func (s *Samples) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s.n, s.h, s.w, s.c)
}

// gather copies the selected samples into a new array
func (s *Samples) gather(indices []int) *Samples {
	size := s.ItemSize()
	out := &Samples{
		data: make([]uint8, 0, size*len(indices)),
		n:    len(indices),
		h:    s.h,
		w:    s.w,
		c:    s.c,
	}
	for _, idx := range indices {
		out.data = append(out.data, s.data[idx*size:(idx+1)*size]...)
	}
	return out
}
