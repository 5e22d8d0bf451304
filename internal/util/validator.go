package util

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/censeo-io/censeo-v2/internal/models"
)

// ValidateSessionName checks a session name (already trimmed by the caller).
func ValidateSessionName(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return fmt.Errorf("session name cannot exceed 200 characters")
	}
	return nil
}

// ValidateSessionStatus checks a session status against the allowed set.
func ValidateSessionStatus(status string) error {
	for _, s := range models.SessionStatuses {
		if status == s {
			return nil
		}
	}
	return fmt.Errorf("invalid status %q, valid options: %s",
		status, strings.Join(models.SessionStatuses, ", "))
}

// ValidateStoryTitle checks a story title (already trimmed by the caller).
func ValidateStoryTitle(title string) error {
	if title == "" {
		return fmt.Errorf("story title cannot be empty")
	}
	if utf8.RuneCountInString(title) > 500 {
		return fmt.Errorf("story title cannot exceed 500 characters")
	}
	return nil
}

// ValidateStoryStatus checks a story status against the allowed set.
func ValidateStoryStatus(status string) error {
	for _, s := range models.StoryStatuses {
		if status == s {
			return nil
		}
	}
	return fmt.Errorf("invalid status %q, valid options: %s",
		status, strings.Join(models.StoryStatuses, ", "))
}

// ValidatePoints checks a vote value against the Fibonacci scale.
func ValidatePoints(points string) error {
	for _, p := range models.VotePoints {
		if points == p {
			return nil
		}
	}
	return fmt.Errorf("invalid points %q, valid options: %s",
		points, strings.Join(models.VotePoints, ", "))
}
