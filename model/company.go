package model

import "github.com/google/uuid"

// Company is a configured remote endpoint: a base URL plus the shared secret
// presented in the X-Remote-Secret header. At most one company is active at
// a time; the active one is the data source for all schema and record
// operations.
type Company struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	URL      string    `json:"url"`
	Secret   string    `json:"secret"`
	IsActive bool      `json:"is_active"`
}

// NewCompany returns a company with a fresh identity.
func NewCompany(name, url, secret string) Company {
	return Company{ID: uuid.New(), Name: name, URL: url, Secret: secret}
}
