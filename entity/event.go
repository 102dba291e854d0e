package entity

type EventQuery struct {
	TenantID string
	Limit    int
}

// EventRecord is an event joined with the animal it belongs to.
type EventRecord struct {
	ID        string         `json:"id"`
	Date      string         `json:"date"`
	Type      string         `json:"type"`
	AnimalID  string         `json:"animalId"`
	EarTag    string         `json:"earTag"`
	Name      string         `json:"name"`
	PenID     string         `json:"penId"`
	Lactation int            `json:"lactation"`
	Details   map[string]any `json:"details"`
}
