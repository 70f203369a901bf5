package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeTimetableSucceeded = "timetable_succeeded"
	MailTypeTimetableFailed    = "timetable_failed"
)

type TimetableMailData struct {
	JobID       string  `json:"jobID"`
	Status      string  `json:"status"`
	Fitness     float64 `json:"fitness"`
	Generations int     `json:"generations"`
	Error       string  `json:"error"`
}
