package registry

// ActivityRegistry lists the task types one BPMN process calls.
type ActivityRegistry struct {
	Version    string     `json:"version"`
	Process    string     `json:"process"`
	Activities []Activity `json:"activities"`
}

// Activity is one tariff task type: the stage it belongs to, the variables it
// consumes and produces, and the BPMN errors it may throw.
type Activity struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	TaskType     string                 `json:"taskType"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	BPMNErrors   []string               `json:"bpmnErrors"`
	Timeout      string                 `json:"timeout"`
	Retries      int                    `json:"retries"`
}

// Stage categories an activity may declare.
const (
	CategoryClassification = "classification"
	CategoryRates          = "rates"
	CategoryQualification  = "qualification"
	CategoryPipeline       = "pipeline"
	CategoryNotification   = "notification"
)

var categories = map[string]bool{
	CategoryClassification: true,
	CategoryRates:          true,
	CategoryQualification:  true,
	CategoryPipeline:       true,
	CategoryNotification:   true,
}
