package assetminify

// Plan selects which asset kinds are minified and how many files are
// processed at once.
type Plan struct {
	JSON   bool
	Images bool
	Tiles  bool

	// Workers bounds the number of files in flight. Zero or less means one
	// per CPU.
	Workers int

	// MemoryLimit caps the bytes held by files in flight. Zero means no cap.
	MemoryLimit int64

	Metrics bool
}

// Enabled reports whether any asset kind is switched on.
func (p *Plan) Enabled() bool {
	return p.JSON || p.Images || p.Tiles
}
