package dataset

import "fmt"

// Label marks a sample as defective or good
type Label int

const (
	Defective Label = 0
	Good      Label = 1
)

// GoodDir is the folder name holding non-defective samples in either split
const GoodDir = "good"

func (l Label) String() string {
	switch l {
	case Defective:
		return "defective"
	case Good:
		return "good"
	}
	return fmt.Sprintf("label(%d)", int(l))
}

// labelForDir returns Good only for a folder named exactly "good"
func labelForDir(name string) Label {
	if name == GoodDir {
		return Good
	}
	return Defective
}

// Split selects the train or test half of a category
type Split int

const (
	Train Split = iota
	Test
)

// Dir returns the directory name of the split inside a category
func (s Split) Dir() string {
	if s == Train {
		return "train"
	}
	return "test"
}

func (s Split) String() string {
	return s.Dir()
}
