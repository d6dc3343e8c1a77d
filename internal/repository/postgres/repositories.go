package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Domains *InstalledDomainRepository
	Keys    *SigningKeyRepository
	Tokens  *TokenRecordRepository
	Logins  *LoginRepository
	Persons *PersonRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Domains: NewInstalledDomainRepository(pool),
		Keys:    NewSigningKeyRepository(pool),
		Tokens:  NewTokenRecordRepository(pool),
		Logins:  NewLoginRepository(pool),
		Persons: NewPersonRepository(pool),
	}
}
