package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port                string
	GitHubToken         string
	GitHubAPIBaseURL    string
	CommitWindowSize    int
	ContributorPageSize int
	ContributorMaxPages int
}

func Load() (*Config, error) {
	port := getEnv("PORT", "8080")
	githubToken := getEnv("GITHUB_TOKEN", "")
	apiBaseURL := getEnv("GITHUB_API_BASE_URL", "https://api.github.com")

	windowSize, err := getIntEnv("COMMIT_WINDOW_SIZE", 100)
	if err != nil {
		return nil, err
	}
	pageSize, err := getIntEnv("CONTRIBUTOR_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	maxPages, err := getIntEnv("CONTRIBUTOR_MAX_PAGES", 10)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:                port,
		GitHubToken:         githubToken,
		GitHubAPIBaseURL:    apiBaseURL,
		CommitWindowSize:    windowSize,
		ContributorPageSize: pageSize,
		ContributorMaxPages: maxPages,
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
