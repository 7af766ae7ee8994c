package handler

const (
	errInternalServer    = "Internal server error"
	errJobNotFound       = "Job not found"
	errBatchNotFound     = "Batch not found"
	errAccountNotFound   = "Account not found"
	errJobNotRequeueable = "Only terminally failed jobs can be requeued"
)
