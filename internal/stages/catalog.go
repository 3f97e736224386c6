package stages

// Options tune the default stage set
type Options struct {
	// StrictInput makes the job parser skip the provider when input validation fails
	StrictInput bool
}

// Default returns the five workflow stages in topological order.
func Default(runner *Runner, opts Options) []Stage {
	return []Stage{
		NewJobParser(runner, opts.StrictInput),
		NewSourcing(runner),
		NewScreening(runner),
		NewCompensation(runner),
		NewOfferLetter(runner),
	}
}
