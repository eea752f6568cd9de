package preflight

// Plan selects the checks Run performs.
type Plan struct {
	SourceAccessible bool
	OutputWritable   bool
}
