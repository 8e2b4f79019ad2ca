package decision

import "time"

// Type classifies what kind of decision future data must inform.
type Type string

const (
	TypeStrategic   Type = "strategic"
	TypeOperational Type = "operational"
	TypeTactical    Type = "tactical"
	TypeAdaptive    Type = "adaptive"
)

// ValidType reports whether t is one of the known decision types.
func ValidType(t Type) bool {
	switch t {
	case TypeStrategic, TypeOperational, TypeTactical, TypeAdaptive:
		return true
	}
	return false
}

// EvidenceNeed is one typed evidence requirement attached to a decision.
type EvidenceNeed struct {
	Description  string `json:"description"`
	EvidenceType string `json:"evidenceType" prompt_desc:"quantitative, qualitative, or mixed"`
	Frequency    string `json:"frequency" prompt_desc:"how often the evidence is needed"`
}

// Question is one decision the collected data must inform.
type Question struct {
	ID             string `json:"id,omitempty" prompt:"-"`
	OrganizationID string `json:"organizationId,omitempty" prompt:"-"`

	Question      string         `json:"question" prompt_desc:"the decision, phrased as a question"`
	DecisionType  Type           `json:"decisionType" prompt_type:"string" prompt_desc:"strategic, operational, tactical, or adaptive"`
	Urgency       string         `json:"urgency" prompt_desc:"high, medium, or low"`
	Frequency     string         `json:"frequency" prompt_desc:"how often this decision recurs"`
	EvidenceNeeds []EvidenceNeed `json:"evidenceNeeds" prompt_type:"[]object"`

	CreatedAt time.Time `json:"createdAt,omitempty" prompt:"-"`
}

// Evolution is one immutable log entry recording a semantic change to
// a Question. History is never rewritten; each change appends a row.
type Evolution struct {
	ID         string    `json:"id,omitempty"`
	QuestionID string    `json:"questionId"`
	ChangeType string    `json:"changeType"`
	Previous   string    `json:"previous,omitempty"`
	Current    string    `json:"current"`
	ChangedAt  time.Time `json:"changedAt"`
}
