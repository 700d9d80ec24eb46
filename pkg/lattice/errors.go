package lattice

import "errors"

var (
	// ErrConfiguration reports an invalid lattice size, particle count or
	// activity threshold for the chosen model.
	ErrConfiguration = errors.New("configuration error")
	// ErrDegenerateInput reports a pattern count whose entropy term is zero,
	// which leaves the CID normalization undefined.
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrUnsupportedModel reports a model tag other than clg or manna.
	ErrUnsupportedModel = errors.New("unsupported model")
)
