// Package repository holds the PostgreSQL queries behind the services.
//
// Repositories never decide what a missing row means: lookups return an error
// wrapping pgx.ErrNoRows (see sqlerr.NoRows) and the service layer turns it
// into the right API error.
package repository

import (
	"github.com/deppfellow/workstations/internal/server"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Workstation *WorkstationRepository
	City        *CityRepository
	Tx          *TxManager
}

func NewRepositories(s *server.Server) *Repositories {
	return NewRepositoriesWithPool(s.DB.Pool)
}

// NewRepositoriesWithPool builds the repositories on an existing pool.
func NewRepositoriesWithPool(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Workstation: NewWorkstationRepository(pool),
		City:        NewCityRepository(pool),
		Tx:          NewTxManager(pool),
	}
}
