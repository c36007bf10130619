package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ChannelStats returns the per-channel mean and population standard
// deviation of all samples, with pixel values scaled to [0,1]. The result
// is what a Normalize transform usually expects.
func ChannelStats(s *Samples) (mean, std []float64, err error) {
	n, h, w, c := s.Shape()
	if n == 0 {
		return nil, nil, fmt.Errorf("cannot compute channel statistics of an empty array")
	}

	mean = make([]float64, c)
	std = make([]float64, c)
	values := make([]float64, n*h*w)
	data := s.Data()
	for ch := 0; ch < c; ch++ {
		for i := range values {
			values[i] = float64(data[i*c+ch]) / 255
		}
		mean[ch], std[ch] = stat.PopMeanStdDev(values, nil)
	}
	return mean, std, nil
}
