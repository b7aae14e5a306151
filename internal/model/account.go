package model

import "time"

// Account kinds stored in accounts.account_type and carried in the JWT
// "role" claim.  INDIVIDUAL accounts request battery swaps; COMPANY
// accounts advertise inventory and fulfil appointments.
const (
	AccountIndividual = "INDIVIDUAL"
	AccountCompany    = "COMPANY"
)

// Account represents a row in the `accounts` table.  Accounts are keyed
// by a uuid string.  Cnpj is the company tax id and is non-nil exactly
// when AccountType is COMPANY; a partial unique index enforces its
// uniqueness at the database level.
//
// Fields:
//  ID           – accounts.id (uuid string, primary key).
//  Username     – accounts.username (unique).
//  Email        – accounts.email (unique).
//  PasswordHash – accounts.password_hash (bcrypt).
//  AccountType  – accounts.account_type (INDIVIDUAL or COMPANY).
//  Cnpj         – accounts.cnpj (nullable, unique when present).
//  FullName     – accounts.full_name.
//  Address      – accounts.address (nullable).
//  Phone        – accounts.phone (nullable).
//  CreatedAt    – accounts.created_at.
//  UpdatedAt    – accounts.updated_at.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	AccountType  string
	Cnpj         *string
	FullName     string
	Address      *string
	Phone        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsCompany reports whether the account is of kind COMPANY.
func (a *Account) IsCompany() bool { return a.AccountType == AccountCompany }

// IsIndividual reports whether the account is of kind INDIVIDUAL.
func (a *Account) IsIndividual() bool { return a.AccountType == AccountIndividual }
