package internal

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Principal is the authenticated caller attached to a request by the auth middleware.
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

type Kind string

const (
	KindMood  Kind = "mood"
	KindSleep Kind = "sleep"
)

func (k Kind) Valid() bool { return k == KindMood || k == KindSleep }

type MoodLevel string

const (
	MoodHappy   MoodLevel = "happy"
	MoodCalm    MoodLevel = "calm"
	MoodNatural MoodLevel = "natural"
	MoodAnxiety MoodLevel = "anxiety"
	MoodAngry   MoodLevel = "angry"
	MoodSad     MoodLevel = "sad"
)

// MoodLevels is in declaration order; stats use it to break ties.
var MoodLevels = []MoodLevel{MoodHappy, MoodCalm, MoodNatural, MoodAnxiety, MoodAngry, MoodSad}

func (m MoodLevel) Valid() bool {
	for _, l := range MoodLevels {
		if l == m {
			return true
		}
	}
	return false
}

type SleepDescription string

const (
	SleepExcellent SleepDescription = "excellent"
	SleepGood      SleepDescription = "good"
	SleepFair      SleepDescription = "fair"
	SleepPoor      SleepDescription = "poor"
	SleepTerrible  SleepDescription = "terrible"
)

var SleepDescriptions = []SleepDescription{SleepExcellent, SleepGood, SleepFair, SleepPoor, SleepTerrible}

func (d SleepDescription) Valid() bool {
	for _, s := range SleepDescriptions {
		if s == d {
			return true
		}
	}
	return false
}

const (
	MinSleepIntensity = 1
	MaxSleepIntensity = 12
)

type MoodDetails struct {
	MoodLevel MoodLevel `json:"moodLevel"`
	MoodNote  string    `json:"moodNote"`
}

type SleepDetails struct {
	SleepIntensity   int              `json:"sleepIntensity"`
	SleepDescription SleepDescription `json:"sleepDescription"`
	SleepNote        string           `json:"sleepNote"`
}

// Entry is one mood or sleep record. Exactly one of the embedded variants is
// non-nil and it matches Kind; their fields are flattened in JSON.
type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Kind       Kind      `json:"kind"`
	Day        string    `json:"day"`
	OccurredAt time.Time `json:"occurredAt"`
	*MoodDetails
	*SleepDetails
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note returns the note of whichever variant is set.
func (e *Entry) Note() string {
	switch {
	case e.MoodDetails != nil:
		return e.MoodNote
	case e.SleepDetails != nil:
		return e.SleepNote
	}
	return ""
}

func (e *Entry) SetNote(note string) {
	switch {
	case e.MoodDetails != nil:
		e.MoodNote = note
	case e.SleepDetails != nil:
		e.SleepNote = note
	}
}

// Clone returns a deep copy so callers never share variant pointers.
func (e Entry) Clone() Entry {
	if e.MoodDetails != nil {
		m := *e.MoodDetails
		e.MoodDetails = &m
	}
	if e.SleepDetails != nil {
		s := *e.SleepDetails
		e.SleepDetails = &s
	}
	return e
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EntryWithUser is an entry joined with its owner's display fields.
type EntryWithUser struct {
	Entry
	User *UserSummary `json:"user,omitempty"`
}
