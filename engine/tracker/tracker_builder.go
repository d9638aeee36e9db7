package tracker

// ClickTrackerBuilderOption is a functional option used to configure a ClickTracker during construction.
type ClickTrackerBuilderOption func(*clickTracker)

// WithHistory sets how many activations the tracker retains. Older activations are dropped first; 0 disables the
// history. Negative values are ignored.
//
// Parameters:
//   - n: the number of activations to retain
//
// Returns:
//   - ClickTrackerBuilderOption: a function that sets the history size
func WithHistory(n int) ClickTrackerBuilderOption {
	return func(c *clickTracker) {
		if n >= 0 {
			c.historySize = n
		}
	}
}
