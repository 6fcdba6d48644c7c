// Package checkin models player check-in records and derives the dashboard
// views from them.
package checkin

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Column names as they appear in the source table.
const (
	FieldDate              = "Date"
	FieldJersey            = "Jersey"
	FieldName              = "Name"
	FieldFeeling           = "How are you feeling?"
	FieldEnergy            = "Energy level?"
	FieldPhysical          = "Anything feeling off physically?"
	FieldNotes             = "Notes"
	FieldCoachActionNeeded = "Coach Action Needed"
	FieldLastCoachContact  = "Last Coach Contact"
)

// PhysicalConcern is the physical-status answer that flags a player.
const PhysicalConcern = "Something's not right"

// DateLayout is the canonical calendar-date format of the Date column.
const DateLayout = "2006-01-02"

// Record is one player's single check-in submission.
type Record struct {
	ID          string `json:"id" yaml:"id"`
	CreatedTime string `json:"createdTime,omitempty" yaml:"created_time,omitempty"`
	Fields      Fields `json:"fields" yaml:"fields"`
}

// Fields holds the columns the dashboard reads. Every field is optional.
type Fields struct {
	Date              string `yaml:"date,omitempty"`
	Jersey            string `yaml:"jersey,omitempty"` // normalized player identity key
	Name              string `yaml:"name,omitempty"`
	Feeling           string `yaml:"feeling,omitempty"`
	Energy            string `yaml:"energy,omitempty"`
	Physical          string `yaml:"physical,omitempty"`
	Notes             string `yaml:"notes,omitempty"`
	CoachActionNeeded bool   `yaml:"coach_action_needed,omitempty"`
	LastCoachContact  string `yaml:"last_coach_contact,omitempty"`
}

// UnmarshalJSON decodes the source field map. Values of an unexpected type
// degrade to the zero value instead of failing the record.
func (f *Fields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Fields{
		Date:              text(raw[FieldDate]),
		Jersey:            JerseyKey(raw[FieldJersey]),
		Name:              text(raw[FieldName]),
		Feeling:           text(raw[FieldFeeling]),
		Energy:            text(raw[FieldEnergy]),
		Physical:          text(raw[FieldPhysical]),
		Notes:             text(raw[FieldNotes]),
		CoachActionNeeded: truthy(raw[FieldCoachActionNeeded]),
		LastCoachContact:  text(raw[FieldLastCoachContact]),
	}
	return nil
}

// MarshalJSON encodes the fields back under their source column names,
// omitting empty values the way the source API does.
func (f Fields) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 9)
	put := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	put(FieldDate, f.Date)
	put(FieldJersey, f.Jersey)
	put(FieldName, f.Name)
	put(FieldFeeling, f.Feeling)
	put(FieldEnergy, f.Energy)
	put(FieldPhysical, f.Physical)
	put(FieldNotes, f.Notes)
	put(FieldLastCoachContact, f.LastCoachContact)
	if f.CoachActionNeeded {
		out[FieldCoachActionNeeded] = true
	}
	return json.Marshal(out)
}

// JerseyKey normalizes a raw Jersey value into the player identity key.
// Numbers use their shortest decimal form, strings are trimmed and
// NFC-normalized, anything else yields "".
func JerseyKey(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return NormalizeJersey(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return number(raw)
	default:
		return ""
	}
}

// NormalizeJersey applies the identity-key rules to a jersey given as text.
func NormalizeJersey(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// text renders a scalar JSON value as display text.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return ""
		}
		return strconv.FormatBool(b)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return number(raw)
	default:
		return ""
	}
}

// truthy reports whether a JSON value is truthy: true, a non-zero number,
// a non-empty string, or any array or object.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 't':
		return string(raw) == "true"
	case 'f', 'n':
		return false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		return s != ""
	case '[', '{':
		return true
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0 && !math.IsNaN(f)
	}
}

func number(raw json.RawMessage) string {
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
