package status

// Status represents transcription job status
type Status int

const (
	// Pending - job created, waiting in the queue
	Pending Status = iota + 1
	// Processing - job picked up by a worker
	Processing
	// Completed - transcript is ready
	Completed
	// Failed - job ended with an error
	Failed
)

var (
	statusName = map[Status]string{Pending: "pending", Processing: "processing",
		Completed: "completed", Failed: "failed"}
	nameStatus = map[string]Status{"pending": Pending, "processing": Processing,
		"completed": Completed, "failed": Failed}
)

// Name returns string representation of status
func Name(st Status) string {
	return statusName[st]
}

// From parses status from string, returns 0 for unknown value
func From(st string) Status {
	return nameStatus[st]
}

// IsTerminal indicates that no further transition is allowed from st
func IsTerminal(st Status) bool {
	return st == Completed || st == Failed
}
