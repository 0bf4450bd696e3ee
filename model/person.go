package model

// Person is a row of the people table hydrated together with the address it
// references. Occupation is nil when the column is NULL.
type Person struct {
	ID         int     `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	BirthDate  Date    `json:"birthDate"`
	Employed   bool    `json:"employed"`
	Occupation *string `json:"occupation"`
	Address    Address `json:"address"`
}

// OccupationOr returns the occupation, or fallback when it is absent.
func (p Person) OccupationOr(fallback string) string {
	if p.Occupation == nil {
		return fallback
	}
	return *p.Occupation
}

func (p Person) FullName() string {
	return p.FirstName + " " + p.LastName
}
