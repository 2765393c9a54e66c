package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	MaxIdentifierLength      = 64
	MaxAccountNameLength     = 100
	MaxDescriptionLength     = 1024
	MaxClientReferenceLength = 255
)

var (
	identifierPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	accountNamePattern = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// --- Domain Validators ---

// ValidateIdentifier checks institution and person ids.
func ValidateIdentifier(s, fieldName string) error {
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxIdentifierLength, fieldName); err != nil {
		return err
	}
	return ValidateStringRegex(s, identifierPattern, fieldName, "letters, digits, '-' or '_'")
}

func ValidateAccountName(s string) error {
	const fieldName = "accountName"
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, MaxAccountNameLength, fieldName); err != nil {
		return err
	}
	return ValidateStringRegex(s, accountNamePattern, fieldName, "letters, digits, spaces, '-' or '_'")
}

// ValidateFreeText bounds an optional free-text field.
func ValidateFreeText(s string, maxLength int, fieldName string) error {
	return ValidateStringMaxLength(s, maxLength, fieldName)
}

// ValidatePositiveAmount checks a minor-unit amount.
func ValidatePositiveAmount(amount int64, fieldName string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %s must be a positive number of minor units", ErrValidationFailed, fieldName)
	}
	return nil
}

// --- Date Validators ---

// ValidateOptionalTimestamp parses an RFC3339 query value. An empty value yields nil.
func ValidateOptionalTimestamp(s, fieldName string) (*time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s ('%s') must be an RFC3339 timestamp", ErrValidationFailed, fieldName, s)
	}
	t = t.UTC()
	return &t, nil
}

// ValidateTimestamp is ValidateOptionalTimestamp for required values.
func ValidateTimestamp(s, fieldName string) (time.Time, error) {
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return time.Time{}, err
	}
	t, err := ValidateOptionalTimestamp(s, fieldName)
	if err != nil {
		return time.Time{}, err
	}
	return *t, nil
}

// ValidateDateRange rejects a window whose start is after its end.
func ValidateDateRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("%w: from must not be after to", ErrValidationFailed)
	}
	return nil
}
