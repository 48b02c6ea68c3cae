package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to user-facing labels
var FieldLabels = map[string]string{
	// Auth fields
	"Email":    "Email",
	"Password": "Password",
	"Role":     "Role",

	// Employee profile
	"UserName":   "Name",
	"Phone":      "Phone number",
	"CityState":  "City/State",
	"Pincode":    "Pincode",
	"Relocation": "Relocation",

	// Sub-resources
	"Degree":            "Degree",
	"Course":            "Course",
	"Company":           "Company",
	"StartDate":         "Start date",
	"EndDate":           "End date",
	"ExpireYear":        "Expiry year",
	"Proficiency":       "Proficiency",
	"JobTitle":          "Job title",
	"PreferredLocation": "Preferred location",
	"ExpectedSalary":    "Expected salary",
	"JobType":           "Job type",
	"WorkAvailability":  "Work availability",
	"ShiftPreference":   "Shift preference",
	"Remote":            "Work mode",

	// Employer
	"CompanyName": "Company name",
	"CompanySize": "Company size",
	"HRName":      "HR name",
	"HRPhone":     "HR phone",
	"HREmail":     "HR email",

	// Jobs
	"SalaryRange": "Salary range",
	"Type":        "Job type",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// Message returns the first formatted validation message, which is what the
// API reports as the error message.
func Message(err error) string {
	messages := FormatValidationErrors(err)
	if len(messages) == 0 {
		return "Invalid input"
	}
	return messages[0]
}

func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", label, param)
		}
		return fmt.Sprintf("%s must have at least %s item(s)", label, param)
	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", label, param)
		}
		return fmt.Sprintf("%s must have at most %s item(s)", label, param)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(param), ", "))
	case "email":
		return fmt.Sprintf("%s must be a valid email address", label)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", label)
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", label)
	case "valid_name":
		return fmt.Sprintf("%s may only contain letters, spaces and common punctuation", label)
	case "valid_phone":
		return fmt.Sprintf("%s must be 7-15 digits with an optional leading +", label)
	case "no_emoji":
		return fmt.Sprintf("%s must not contain emoji or symbols", label)
	case "salary_band":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(SalaryBands, ", "))
	case "year":
		return fmt.Sprintf("%s must be a four digit year", label)
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", label, strings.ToLower(getFieldLabel(param)))
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
