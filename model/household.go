package model

// Household is an address together with everyone who lives there, ordered
// by person id.
type Household struct {
	Address Address  `json:"address"`
	Members []Person `json:"members"`
}
