package repository

import (
	"context"
	"database/sql"

	"github.com/voltswap/battery-swap-api/internal/model"
)

// AppointmentRepo provides persistence for swap appointments. Status
// transitions that touch stock are executed by handlers inside a
// single transaction combining GetForCompanyTx (row-locked read),
// a BatteryRepo stock helper and UpdateStatusTx, so the appointment
// status and the battery quantity commit together or not at all.
type AppointmentRepo struct{ db *sql.DB }

func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *AppointmentRepo) DB() *sql.DB { return r.db }

// Create inserts a new Pending appointment and populates the generated
// id and timestamps on the provided record.
func (r *AppointmentRepo) Create(ctx context.Context, a *model.Appointment) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO appointments (user_id, company_id, battery_name, notes, status)
		 VALUES (?,?,?,?,?)`,
		a.UserID, a.CompanyID, a.BatteryName, a.Notes, a.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM appointments WHERE id=?`, a.ID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

// Detail is an appointment row joined with the display names of both
// participants, the shape returned to either side of the marketplace.
type Detail struct {
	ID          uint64  `json:"id"`
	UserID      string  `json:"user_id"`
	UserName    string  `json:"user_name"`
	CompanyID   string  `json:"company_id"`
	CompanyName string  `json:"company_name"`
	BatteryName string  `json:"battery_name"`
	Notes       *string `json:"notes,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

const detailQuery = `SELECT ap.id, ap.user_id, u.full_name, ap.company_id, co.full_name,
       ap.battery_name, ap.notes, ap.status,
       DATE_FORMAT(ap.created_at, '%Y-%m-%dT%H:%i:%sZ'),
       DATE_FORMAT(ap.updated_at, '%Y-%m-%dT%H:%i:%sZ')
FROM appointments ap
JOIN accounts u  ON u.id  = ap.user_id
JOIN accounts co ON co.id = ap.company_id`

func scanDetail(scan func(dest ...interface{}) error) (*Detail, error) {
	var d Detail
	var notes sql.NullString
	err := scan(&d.ID, &d.UserID, &d.UserName, &d.CompanyID, &d.CompanyName,
		&d.BatteryName, &notes, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		v := notes.String
		d.Notes = &v
	}
	return &d, nil
}

// GetDetailForViewer returns an appointment visible to the given
// account. Only the requester and the fulfiller may view it: anyone
// else gets ErrForbidden, an absent id gets sql.ErrNoRows.
func (r *AppointmentRepo) GetDetailForViewer(ctx context.Context, id uint64, viewerID string) (*Detail, error) {
	d, err := scanDetail(r.db.QueryRowContext(ctx, detailQuery+` WHERE ap.id = ?`, id).Scan)
	if err != nil {
		return nil, err
	}
	if d.UserID != viewerID && d.CompanyID != viewerID {
		return nil, ErrForbidden
	}
	return d, nil
}

// ListByUser returns all appointments requested by the account, newest
// first.
func (r *AppointmentRepo) ListByUser(ctx context.Context, userID string) ([]Detail, error) {
	return r.list(ctx, detailQuery+` WHERE ap.user_id = ? ORDER BY ap.created_at DESC, ap.id DESC`, userID)
}

// ListByCompany returns all appointments addressed to the company,
// optionally filtered by exact status, newest first.
func (r *AppointmentRepo) ListByCompany(ctx context.Context, companyID, statusFilter string) ([]Detail, error) {
	if statusFilter != "" {
		return r.list(ctx,
			detailQuery+` WHERE ap.company_id = ? AND ap.status = ? ORDER BY ap.created_at DESC, ap.id DESC`,
			companyID, statusFilter)
	}
	return r.list(ctx, detailQuery+` WHERE ap.company_id = ? ORDER BY ap.created_at DESC, ap.id DESC`, companyID)
}

func (r *AppointmentRepo) list(ctx context.Context, q string, args ...interface{}) ([]Detail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Detail, 0)
	for rows.Next() {
		d, err := scanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetForCompanyTx loads an appointment addressed to the company inside
// a transaction, locking the row so concurrent status updates against
// the same appointment serialize. A foreign or absent id yields
// sql.ErrNoRows.
func (r *AppointmentRepo) GetForCompanyTx(ctx context.Context, tx *sql.Tx, id uint64, companyID string) (*model.Appointment, error) {
	var a model.Appointment
	var notes sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, company_id, battery_name, notes, status, created_at, updated_at
		 FROM appointments WHERE id=? AND company_id=? FOR UPDATE`,
		id, companyID).
		Scan(&a.ID, &a.UserID, &a.CompanyID, &a.BatteryName, &notes, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		v := notes.String
		a.Notes = &v
	}
	return &a, nil
}

// UpdateStatusTx rewrites the status and bumps the update timestamp
// within the caller's transaction.
func (r *AppointmentRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE appointments SET status=?, updated_at=NOW() WHERE id=?`, status, id)
	return err
}

// CancelByUser cancels an appointment on behalf of its requester.
// Only Pending and InProgress appointments may be cancelled this way;
// a requester cancel never adjusts stock, so letting it out of
// Completed would strand the decremented unit. Returns sql.ErrNoRows
// when the appointment does not belong to the user (or is absent) and
// ErrConflict when its current status forbids the transition.
func (r *AppointmentRepo) CancelByUser(ctx context.Context, id uint64, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET status=?, updated_at=NOW()
		 WHERE id=? AND user_id=? AND status IN (?,?)`,
		model.StatusCancelled, id, userID, model.StatusPending, model.StatusInProgress)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Nothing changed: classify as missing vs. non-cancellable.
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM appointments WHERE id=? AND user_id=?)`,
		id, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrConflict
}

// CountByCompanyAndStatus returns the number of the company's
// appointments currently in the given status.
func (r *AppointmentRepo) CountByCompanyAndStatus(ctx context.Context, companyID, status string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM appointments WHERE company_id=? AND status=?`,
		companyID, status).Scan(&n)
	return n, err
}
