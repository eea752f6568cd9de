package pathcompression

// Plan carries the settings for one extract and archive run.
type Plan struct {
	Format Format

	// TempDir is where the scratch directory is allocated. Empty means the
	// system temp directory.
	TempDir string

	// Excludes are extra gitignore patterns for folder sources. Archive
	// sources are always taken whole.
	Excludes []string

	Metrics bool
}
