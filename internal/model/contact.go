package model

// Contact is a contact record as reported by the WhatsApp client.
type Contact struct {
	ID           string
	Name         string
	PushName     string
	Number       string
	IsMe         bool
	IsGroup      bool
	IsRegistered bool
	IsBlocked    bool
}

// DisplayName prefers the saved name, then the push name.
func (c *Contact) DisplayName() string {
	if c == nil {
		return "Unknown"
	}
	if c.Name != "" {
		return c.Name
	}
	if c.PushName != "" {
		return c.PushName
	}
	return "Unknown"
}

type Participant struct {
	ID           string
	IsAdmin      bool
	IsSuperAdmin bool
}

// Chat is either a direct conversation or a group.
type Chat struct {
	ID           string
	Name         string
	IsGroup      bool
	Participants []Participant
}

type ContactSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Number    string `json:"number"`
	IsGroup   bool   `json:"isGroup"`
	IsBlocked bool   `json:"isBlocked"`
}

type GroupSummary struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ParticipantsCount int    `json:"participantsCount"`
	IsGroup           bool   `json:"isGroup"`
}

type GroupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MemberSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Number  string `json:"number"`
	IsAdmin bool   `json:"isAdmin"`
}
