package notifybrokerreview

// Input uses the variable names classify-and-qualify writes, so the BPMN
// model can pass them through unmapped.
type Input struct {
	Fingerprint    string   `json:"fingerprint"`
	Description    string   `json:"description,omitempty"`
	TopCode        string   `json:"topCode,omitempty"`
	ReviewRequired bool     `json:"reviewRequired"`
	ReviewReasons  []string `json:"reviewReasons,omitempty"`
	ContactEmail   string   `json:"contactEmail,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"`
	EmailStatus    string   `json:"emailStatus"`
	SNSStatus      string   `json:"snsStatus"`
	Recipients     []string `json:"recipients,omitempty"`
	SentAt         string   `json:"sentAt"`
}

const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
	StatusSkipped  = "skipped"
)
