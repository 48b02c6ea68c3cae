package validation_test

import (
	"errors"
	"testing"

	"workwave-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	UserName       string   `validate:"required,valid_name"`
	Phone          string   `validate:"omitempty,valid_phone"`
	ExpectedSalary string   `validate:"salary_band"`
	ExpireYear     string   `validate:"omitempty,year"`
	Remote         string   `validate:"omitempty,oneof=remote hybrid onsite"`
	JobType        []string `validate:"required,min=1"`
}

func TestCustomValidators(t *testing.T) {
	v := validation.New()

	valid := sample{
		UserName:       "Asha O'Neil",
		Phone:          "+919876543210",
		ExpectedSalary: "6-10 LPA",
		ExpireYear:     "2030",
		Remote:         "hybrid",
		JobType:        []string{"full-time"},
	}
	require.NoError(t, v.Struct(valid))

	cases := map[string]func(s *sample){
		"name with markup":              func(s *sample) { s.UserName = "<script>" },
		"short phone":                   func(s *sample) { s.Phone = "123" },
		"unknown salary band":           func(s *sample) { s.ExpectedSalary = "100 LPA" },
		"two digit year":                func(s *sample) { s.ExpireYear = "30" },
		"empty job type":                func(s *sample) { s.JobType = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := valid
			mutate(&s)
			assert.Error(t, v.Struct(s))
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := validation.New()

	err := v.Struct(sample{UserName: "", ExpectedSalary: "nope", JobType: []string{"x"}})
	require.Error(t, err)

	messages := validation.FormatValidationErrors(err)
	assert.Contains(t, messages, "Name is required")
	assert.Contains(t, messages, "Expected salary must be one of: 0-3 LPA, 3-6 LPA, 6-10 LPA, 10-20 LPA, 20+ LPA")
	assert.Equal(t, "Name is required", validation.Message(err))

	assert.Equal(t, []string{"boom"}, validation.FormatValidationErrors(errors.New("boom")))
}
