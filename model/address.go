package model

type Address struct {
	ID            int    `json:"id"`
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
}
