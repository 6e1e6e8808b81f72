package cli

var (
	verbose    bool
	configPath string

	// for run command
	noMonitor bool
	dryRun    bool

	// for io commands
	clickCount  int
	typeSpeed   int
	appleScript bool
)
