package util

import (
	"strings"
	"testing"
)

func TestValidateSessionName_Valid(t *testing.T) {
	testCases := []string{
		"Sprint Planning",
		"Q3 Backlog",
		"x",
		strings.Repeat("a", 200),
	}

	for _, name := range testCases {
		err := ValidateSessionName(name)
		if err != nil {
			t.Errorf("ValidateSessionName(%q) error = %v, want nil", name, err)
		}
	}
}

func TestValidateSessionName_Empty(t *testing.T) {
	err := ValidateSessionName("")

	if err == nil {
		t.Error("ValidateSessionName(\"\") error = nil, want error")
	}
}

func TestValidateSessionName_TooLong(t *testing.T) {
	err := ValidateSessionName(strings.Repeat("a", 201))

	if err == nil {
		t.Error("ValidateSessionName() with 201 chars error = nil, want error")
	}
}

func TestValidateSessionName_MultibyteLength(t *testing.T) {
	// 200 runes of multibyte text are within the limit
	err := ValidateSessionName(strings.Repeat("планирование"[:2], 200))
	if err != nil {
		t.Errorf("ValidateSessionName() with 200 multibyte runes error = %v, want nil", err)
	}
}

func TestValidateSessionStatus(t *testing.T) {
	valid := []string{"active", "completed", "paused"}
	for _, status := range valid {
		if err := ValidateSessionStatus(status); err != nil {
			t.Errorf("ValidateSessionStatus(%q) error = %v, want nil", status, err)
		}
	}

	invalid := []string{"", "archived", "Active", "done"}
	for _, status := range invalid {
		if err := ValidateSessionStatus(status); err == nil {
			t.Errorf("ValidateSessionStatus(%q) error = nil, want error", status)
		}
	}
}

func TestValidateStoryTitle_Valid(t *testing.T) {
	testCases := []string{
		"Login page",
		strings.Repeat("a", 500),
	}

	for _, title := range testCases {
		err := ValidateStoryTitle(title)
		if err != nil {
			t.Errorf("ValidateStoryTitle(%q) error = %v, want nil", title, err)
		}
	}
}

func TestValidateStoryTitle_Invalid(t *testing.T) {
	testCases := []string{
		"",
		strings.Repeat("a", 501),
	}

	for _, title := range testCases {
		err := ValidateStoryTitle(title)
		if err == nil {
			t.Errorf("ValidateStoryTitle(%q) error = nil, want error", title)
		}
	}
}

func TestValidateStoryStatus(t *testing.T) {
	valid := []string{"pending", "voting", "completed"}
	for _, status := range valid {
		if err := ValidateStoryStatus(status); err != nil {
			t.Errorf("ValidateStoryStatus(%q) error = %v, want nil", status, err)
		}
	}

	if err := ValidateStoryStatus("estimating"); err == nil {
		t.Error("ValidateStoryStatus(\"estimating\") error = nil, want error")
	}
}

func TestValidatePoints(t *testing.T) {
	valid := []string{"1", "2", "3", "5", "8", "13", "21", "?"}
	for _, points := range valid {
		if err := ValidatePoints(points); err != nil {
			t.Errorf("ValidatePoints(%q) error = %v, want nil", points, err)
		}
	}

	invalid := []string{"", "0", "4", "34", "fibonacci", "??"}
	for _, points := range invalid {
		if err := ValidatePoints(points); err == nil {
			t.Errorf("ValidatePoints(%q) error = nil, want error", points)
		}
	}
}
