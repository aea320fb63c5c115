package domain

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Outcome is the status of one submission attempt: idle, then loading, then success or error.
type Outcome struct {
	Status  Status
	Message string
}

func Idle() Outcome { return Outcome{Status: StatusIdle} }

func Loading(msg string) Outcome { return Outcome{Status: StatusLoading, Message: msg} }

func Succeeded(msg string) Outcome { return Outcome{Status: StatusSuccess, Message: msg} }

func Failed(msg string) Outcome { return Outcome{Status: StatusError, Message: msg} }

func (o Outcome) InFlight() bool { return o.Status == StatusLoading }

// Visible is false for idle outcomes and empty messages; the status banner renders nothing then.
func (o Outcome) Visible() bool {
	return o.Status != StatusIdle && o.Status != "" && o.Message != ""
}

func (o Outcome) IsError() bool { return o.Status == StatusError }

func (o Outcome) IsSuccess() bool { return o.Status == StatusSuccess }
