package domain

type Location struct {
	ID        string
	Name      string
	City      string
	State     string
	Region    string
	Latitude  float64
	Longitude float64
}
