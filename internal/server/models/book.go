package models

import "time"

type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CoverKey    string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookFilter narrows book listings. Empty fields do not filter.
type BookFilter struct {
	Author string
	Genre  string
}
