package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/voltswap/battery-swap-api/internal/model"
	"github.com/voltswap/battery-swap-api/internal/utils"
)

// AccountRepo persists accounts (the identity store). Accounts are
// keyed by uuid strings; usernames, emails and company tax ids are
// unique at the database level and duplicate-key failures are mapped
// to sentinel errors so handlers can annotate the offending field.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = `id, username, email, password_hash, account_type, cnpj, full_name, address, phone, created_at, updated_at`

// CreateAccountParams carries the profile fields for registration.
// The caller is responsible for kind-specific validation (Cnpj
// required iff COMPANY); the repository only persists.
type CreateAccountParams struct {
	Username    string
	Email       string
	AccountType string
	Cnpj        *string
	FullName    string
	Address     *string
	Phone       *string
}

// Create hashes the password with the given bcrypt cost, generates a
// uuid and inserts the account. Duplicate username/email/cnpj rows
// are reported via the matching sentinel error.
func (r *AccountRepo) Create(ctx context.Context, p CreateAccountParams, password string, cost int) (*model.Account, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	username := strings.TrimSpace(p.Username)
	email := strings.ToLower(strings.TrimSpace(p.Email))
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash, account_type, cnpj, full_name, address, phone)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		id, username, email, hash, p.AccountType, p.Cnpj, p.FullName, p.Address, p.Phone)
	if err != nil {
		if dup := classifyDuplicate(err); dup != nil {
			return nil, dup
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// classifyDuplicate maps a MySQL 1062 duplicate-key error onto the
// sentinel for the colliding column, or returns nil when the error is
// not a duplicate-key failure.
func classifyDuplicate(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return nil
	}
	switch {
	case strings.Contains(msg, "username"):
		return ErrUsernameExists
	case strings.Contains(msg, "email"):
		return ErrEmailExists
	case strings.Contains(msg, "cnpj"):
		return ErrCnpjExists
	}
	return ErrConflict
}

func (r *AccountRepo) scanRow(row *sql.Row) (*model.Account, error) {
	var a model.Account
	var cnpj, address, phone sql.NullString
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.AccountType,
		&cnpj, &a.FullName, &address, &phone, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cnpj.Valid {
		v := cnpj.String
		a.Cnpj = &v
	}
	if address.Valid {
		v := address.String
		a.Address = &v
	}
	if phone.Valid {
		v := phone.String
		a.Phone = &v
	}
	return &a, nil
}

// GetByID fetches an account by uuid. Returns sql.ErrNoRows when absent.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.scanRow(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=? LIMIT 1`, id))
}

// GetByUsername fetches an account by its exact username.
func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.scanRow(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username=? LIMIT 1`, strings.TrimSpace(username)))
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.scanRow(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email=? LIMIT 1`,
		strings.ToLower(strings.TrimSpace(email))))
}

// GetCompanyByID fetches an account that must be of kind COMPANY.
// Returns sql.ErrNoRows when the id is absent or not a company, so
// callers can treat both as not-found, mirroring how companies are
// looked up when creating an appointment.
func (r *AccountRepo) GetCompanyByID(ctx context.Context, id string) (*model.Account, error) {
	return r.scanRow(r.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id=? AND account_type=? LIMIT 1`,
		id, model.AccountCompany))
}

// UpdateProfile mutates the profile fields an account owner may edit:
// full name, email, address and phone. Username, kind and cnpj are
// immutable after registration. Duplicate emails are reported via
// ErrEmailExists.
func (r *AccountRepo) UpdateProfile(ctx context.Context, id, fullName, email string, address, phone *string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE accounts SET full_name=?, email=?, address=?, phone=?, updated_at=NOW() WHERE id=?`,
		fullName, strings.ToLower(strings.TrimSpace(email)), address, phone, id)
	if err != nil {
		if dup := classifyDuplicate(err); dup != nil {
			return dup
		}
	}
	return err
}

// HasAppointments reports whether any appointment references the
// account as requester or fulfiller.
func (r *AccountRepo) HasAppointments(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE user_id=? OR company_id=?)`,
		id, id).Scan(&exists)
	return exists, err
}

// Delete removes an account. Accounts referenced by appointments are
// protected (restrict): ErrConflict is returned and nothing is
// deleted. Company batteries go with the account via the cascading
// foreign key on batteries.company_id.
func (r *AccountRepo) Delete(ctx context.Context, id string) error {
	referenced, err := r.HasAppointments(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
