package cli

// Default values for CLI flags and output.
const (
	// TabWidth is the padding of tabular output.
	TabWidth = 2
	// setCommandArgs is the number of arguments of config set.
	setCommandArgs = 2
	// storeConcurrency is used when the configuration does not set
	// max_concurrent.
	storeConcurrency = 4
)
