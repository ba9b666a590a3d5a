package domain

type AlumniProfile struct {
	ID             int    `json:"id" toml:"id"`
	Name           string `json:"name" toml:"name"`
	GraduationYear int    `json:"graduationYear" toml:"graduation_year"`
	Profession     string `json:"profession" toml:"profession"`
	Company        string `json:"company" toml:"company"`
	Location       string `json:"location" toml:"location"`
	Avatar         string `json:"avatar,omitempty" toml:"avatar"`
}
