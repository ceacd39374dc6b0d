// Package service holds the business rules of the workstation tree: lookups
// of referenced rows, cycle checks and the transactions around every write.
package service

import (
	"github.com/deppfellow/workstations/internal/lib/job"
	"github.com/deppfellow/workstations/internal/repository"
	"github.com/deppfellow/workstations/internal/server"
)

type Services struct {
	Workstation *WorkstationService
	City        *CityService
	Job         *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	cityService := NewCityService(repos.City)

	// A nil *JobService stored in the interface would not compare equal to
	// nil, so only hand it over when jobs are running.
	var audit TreeAuditEnqueuer
	if s.Job != nil {
		audit = s.Job
	}

	return &Services{
		Workstation: NewWorkstationService(repos.Workstation, cityService, repos.Tx, audit),
		City:        cityService,
		Job:         s.Job,
	}, nil
}
