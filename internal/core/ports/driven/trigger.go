package driven

import "context"

// ChangeTrigger delivers external change notifications.
type ChangeTrigger interface {
	// Events starts watching and returns a channel that receives a value
	// whenever a change is observed. The channel is closed when ctx is done.
	Events(ctx context.Context) (<-chan struct{}, error)
}
