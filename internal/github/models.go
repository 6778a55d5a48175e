package github

import "time"

// Wire shapes returned by the GitHub REST API. Decoded here and mapped to
// internal models; never exposed past this package.

type repositoryResponse struct {
	ID              int64     `json:"id"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Language        string    `json:"language"`
	ForksCount      int       `json:"forks_count"`
	StargazersCount int       `json:"stargazers_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	WatchersCount   int       `json:"watchers_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type accountResponse struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type commitSignature struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type commitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string          `json:"message"`
		Author    commitSignature `json:"author"`
		Committer commitSignature `json:"committer"`
	} `json:"commit"`
	// Author is null when GitHub could not match the commit author to an
	// account.
	Author  *accountResponse `json:"author"`
	HTMLURL string           `json:"html_url"`
}

type contributorResponse struct {
	ID            int64  `json:"id"`
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	HTMLURL       string `json:"html_url"`
	Type          string `json:"type"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Contributions int    `json:"contributions"`
}
