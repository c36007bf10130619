package dataset

import "errors"

var (
	// ErrPathNotFound is returned when the root, category or split directory is missing
	ErrPathNotFound = errors.New("dataset path not found")

	// ErrDecode is returned when a file in the split is not a readable image
	ErrDecode = errors.New("failed to decode image")

	// ErrIndexOutOfRange is returned by accessors called with an index outside [0, Len())
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrShapeMismatch is returned when the images of a split do not share one shape
	ErrShapeMismatch = errors.New("inconsistent sample shape")

	// ErrInvalidConfig is returned for configurations that cannot describe a split
	ErrInvalidConfig = errors.New("invalid dataset config")
)
