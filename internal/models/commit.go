package models

import "time"

type Commit struct {
    SHA         string              `json:"sha"`
    Message     string              `json:"message"`
    Author      *RegisteredIdentity `json:"author,omitempty"`
    AuthorName  string              `json:"author_name"`
    AuthorEmail string              `json:"author_email"`
    CommittedAt time.Time           `json:"committed_at"`
    CommitURL   string              `json:"html_url"`
}
