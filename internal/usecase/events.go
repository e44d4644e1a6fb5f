package usecase

type commandKind int

const (
	cmdActivate commandKind = iota
	cmdDeactivate
	cmdToggle
)

// Every message handled by the control loop. Stage completions and timer
// expiries carry the generation of the activation that produced them; the
// loop discards anything tagged with a superseded generation.
type (
	command struct {
		kind commandKind
	}

	captureReady struct {
		generation uint64
	}

	captureResult struct {
		generation uint64
		text       string
		err        error
	}

	inferResult struct {
		generation uint64
		userText   string
		reply      string
		err        error
	}

	speakResult struct {
		generation uint64
		err        error
	}

	resumeDue struct {
		generation uint64
	}

	shutdown struct {
		done chan struct{}
	}
)
