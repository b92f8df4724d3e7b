package models

import "time"

type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	BookID    string    `json:"book"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReviewAuthor is the part of a User shown next to a review.
type ReviewAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ReviewWithAuthor is a Review whose user reference has been resolved.
type ReviewWithAuthor struct {
	ID        string       `json:"id"`
	User      ReviewAuthor `json:"user"`
	BookID    string       `json:"book"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
