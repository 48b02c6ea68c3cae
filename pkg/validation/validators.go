package validation

import (
	"regexp"
	"strconv"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Allow letters, numbers, spaces, and common professional punctuation: . ' - / & ( ) ,
	nameRegex = regexp.MustCompile(`^[\p{L}0-9 .'/&(),-]+$`)

	// E164-like phone: optional +, digits 7-15 length
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

	yearRegex = regexp.MustCompile(`^[0-9]{4}$`)
)

// SalaryBands are the accepted expected-salary values of a job preference.
var SalaryBands = []string{"0-3 LPA", "3-6 LPA", "6-10 LPA", "10-20 LPA", "20+ LPA"}

// New returns a validator with every custom rule registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
	_ = v.RegisterValidation("salary_band", SalaryBand)
	_ = v.RegisterValidation("year", Year)
}

// ValidName validates that a string contains only valid name characters
func ValidName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return nameRegex.MatchString(val)
}

// ValidPhone validates a phone number structure
func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return phoneRegex.MatchString(val)
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, r := range val {
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}

// SalaryBand accepts one of SalaryBands. The empty string is left to
// "required".
func SalaryBand(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	for _, band := range SalaryBands {
		if val == band {
			return true
		}
	}
	return false
}

// Year accepts a four digit year between 1950 and fifty years from now.
func Year(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	if !yearRegex.MatchString(val) {
		return false
	}
	year, _ := strconv.Atoi(val)
	return year >= 1950 && year <= time.Now().Year()+50
}
