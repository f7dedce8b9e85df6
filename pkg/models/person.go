package models

type Person struct {
	ID        string `json:"person_id"`
	Name      string `json:"name"`
	Birthdate string `json:"birthdate,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// CastCredit links a person to a media item as an on-screen role.
type CastCredit struct {
	PersonID      string `json:"person_id"`
	Name          string `json:"name"`
	CharacterName string `json:"character_name,omitempty"`
}

// CrewCredit links a person to a media item in a production role.
// A person may hold several roles on the same title.
type CrewCredit struct {
	PersonID string `json:"person_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}
