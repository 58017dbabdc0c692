package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerUpload              Trigger = "UPLOAD"
	TriggerExtractionSucceeded Trigger = "EXTRACTION_SUCCEEDED"
	TriggerExtractionFailed    Trigger = "EXTRACTION_FAILED"
	TriggerApprove             Trigger = "APPROVE"
	TriggerReject              Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
