package checkin

// Display fallbacks for absent fields.
const (
	DefaultName        = "Player"
	DefaultLastContact = "Never"
)

// Card is the read-only projection of a record shown on the dashboard.
type Card struct {
	ID                string `json:"id" yaml:"id"`
	Jersey            string `json:"jersey" yaml:"jersey"`
	Name              string `json:"name" yaml:"name"`
	Date              string `json:"date,omitempty" yaml:"date,omitempty"`
	Feeling           string `json:"feeling,omitempty" yaml:"feeling,omitempty"`
	Energy            string `json:"energy,omitempty" yaml:"energy,omitempty"`
	Physical          string `json:"physical,omitempty" yaml:"physical,omitempty"`
	Notes             string `json:"notes,omitempty" yaml:"notes,omitempty"`
	CoachActionNeeded bool   `json:"coach_action_needed" yaml:"coach_action_needed"`
	LastContact       string `json:"last_contact" yaml:"last_contact"`
}

// DisplayName returns the player's name or DefaultName.
func (f Fields) DisplayName() string {
	if f.Name == "" {
		return DefaultName
	}
	return f.Name
}

// LastContact returns the last coach contact or DefaultLastContact.
func (f Fields) LastContact() string {
	if f.LastCoachContact == "" {
		return DefaultLastContact
	}
	return f.LastCoachContact
}

// NewCard projects r for display.
func NewCard(r Record) Card {
	return Card{
		ID:                r.ID,
		Jersey:            r.Fields.Jersey,
		Name:              r.Fields.DisplayName(),
		Date:              r.Fields.Date,
		Feeling:           r.Fields.Feeling,
		Energy:            r.Fields.Energy,
		Physical:          r.Fields.Physical,
		Notes:             r.Fields.Notes,
		CoachActionNeeded: r.Fields.CoachActionNeeded,
		LastContact:       r.Fields.LastContact(),
	}
}

// Cards projects every record, preserving order.
func Cards(records []Record) []Card {
	out := make([]Card, len(records))
	for i, r := range records {
		out[i] = NewCard(r)
	}
	return out
}
