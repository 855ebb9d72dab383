package formation

// Config carries the policy switches of the state machine. The defaults
// reproduce the original product behavior; the switches exist because both
// behaviors are defensible and deployments differ.
type Config struct {
	// RewindOnEdit controls what happens to CurrentStep when an earlier
	// handler is re-invoked on a session that has already advanced past
	// it. False (default): the field is overwritten but CurrentStep
	// stays put, allowing "patch a typo" edits without redoing the flow.
	// True: CurrentStep rewinds to the re-invoked handler's step so
	// progress always reflects the most recently confirmed data.
	RewindOnEdit bool

	// BlockOnNameCheck controls whether a failed or negative
	// name-availability check stops progression. False (default): the
	// check is advisory; the result is recorded and the flow continues.
	BlockOnNameCheck bool
}
