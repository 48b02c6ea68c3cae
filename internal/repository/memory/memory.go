// Package memory implements the repositories in process. It backs the
// memory store driver used for local development and end-to-end tests.
package memory

import "workwave-backend/internal/domain"

var (
	_ domain.AccountRepository  = (*AccountRepository)(nil)
	_ domain.EmployeeRepository = (*EmployeeRepository)(nil)
	_ domain.EmployerRepository = (*EmployerRepository)(nil)
	_ domain.JobRepository      = (*JobRepository)(nil)
)
