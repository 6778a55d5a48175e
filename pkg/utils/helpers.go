package utils

import (
	"fmt"
	"strings"
)

// SplitFullName splits a repository full name ("owner/name") on the first
// slash. The name half may itself contain slashes.
func SplitFullName(fullName string) (owner, name string, err error) {
	owner, name, found := strings.Cut(fullName, "/")
	if !found || owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository full name: %q", fullName)
	}

	return owner, name, nil
}

func IsValidFullName(fullName string) bool {
	_, _, err := SplitFullName(fullName)
	return err == nil
}
