package constants

const (
	StatusOK        = "ok"
	StatusReceived  = "received"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
