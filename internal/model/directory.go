package model

import "time"

// Session is an issued login session. Rows are written by the auth service;
// this service only reads them and removes expired ones.
type Session struct {
	Token     string    `json:"-" bson:"token"`
	UserID    string    `json:"userId" bson:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Ticket is the read-only projection of a ticket used to build notification
// context.
type Ticket struct {
	ID            string   `json:"id" bson:"_id"`
	Number        int64    `json:"number" bson:"number"`
	Subject       string   `json:"subject" bson:"subject"`
	RequesterName string   `json:"requesterName" bson:"requester_name"`
	AssigneeIDs   []string `json:"assigneeIds" bson:"assignee_ids"`
}

type User struct {
	ID          string `json:"id" bson:"_id"`
	DisplayName string `json:"displayName" bson:"display_name"`
}
