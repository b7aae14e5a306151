package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/voltswap/battery-swap-api/internal/model"
)

// BatteryRepo provides CRUD operations for battery listings and the
// stock adjustments coupled to appointment transitions. Appointments
// match batteries by (company_id, name), never by id, so the stock
// helpers take the owning company and the battery name. All stock
// mutations are conditional single-statement updates executed inside
// the caller's transaction so the quantity invariant (0..10000) holds
// under concurrent completions.
type BatteryRepo struct{ db *sql.DB }

func NewBatteryRepo(db *sql.DB) *BatteryRepo { return &BatteryRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *BatteryRepo) DB() *sql.DB { return r.db }

const batteryColumns = `id, company_id, name, type, description, quantity, created_at`

func scanBattery(scan func(dest ...interface{}) error) (*model.Battery, error) {
	var b model.Battery
	var desc sql.NullString
	if err := scan(&b.ID, &b.CompanyID, &b.Name, &b.Type, &desc, &b.Quantity, &b.CreatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		v := desc.String
		b.Description = &v
	}
	return &b, nil
}

// Create inserts a new battery for its owning company and populates
// the generated id and creation timestamp on the provided record.
func (r *BatteryRepo) Create(ctx context.Context, b *model.Battery) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO batteries (company_id, name, type, description, quantity) VALUES (?,?,?,?,?)`,
		b.CompanyID, b.Name, b.Type, b.Description, b.Quantity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the created_at default assigned by the database.
	return r.db.QueryRowContext(ctx,
		`SELECT created_at FROM batteries WHERE id=?`, b.ID).Scan(&b.CreatedAt)
}

// Update rewrites all editable fields of a battery owned by the given
// company. The creation timestamp is untouched. Returns sql.ErrNoRows
// when no battery with that id belongs to the company.
func (r *BatteryRepo) Update(ctx context.Context, companyID string, id uint64, name, typ string, description *string, quantity uint32) error {
	// Ownership is resolved by scoping the lookup to the company, as
	// with every owner mutation: a foreign company's battery looks
	// exactly like a missing one.
	var existing uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM batteries WHERE id=? AND company_id=? LIMIT 1`, id, companyID).Scan(&existing)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE batteries SET name=?, type=?, description=?, quantity=? WHERE id=? AND company_id=?`,
		name, typ, description, quantity, id, companyID)
	return err
}

// Delete removes a battery owned by the company. Deletion is
// unconditional: appointments referencing the battery's name keep
// their rows and simply fail to match at completion time.
func (r *BatteryRepo) Delete(ctx context.Context, companyID string, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM batteries WHERE id=? AND company_id=?`, id, companyID)
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

// ListByCompany returns all of a company's batteries, newest first.
func (r *BatteryRepo) ListByCompany(ctx context.Context, companyID string) ([]model.Battery, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+batteryColumns+` FROM batteries WHERE company_id=? ORDER BY created_at DESC, id DESC`,
		companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Battery, 0)
	for rows.Next() {
		b, err := scanBattery(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CompanyProfile is the public slice of a company account attached to
// publicly readable battery detail and browse responses.
type CompanyProfile struct {
	ID       string  `json:"id"`
	FullName string  `json:"name"`
	Address  *string `json:"address,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// GetDetail returns a battery together with its owning company's
// public profile. No ownership check: battery detail is public.
func (r *BatteryRepo) GetDetail(ctx context.Context, id uint64) (*model.Battery, *CompanyProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT b.id, b.company_id, b.name, b.type, b.description, b.quantity, b.created_at,
		        a.full_name, a.address, a.phone
		 FROM batteries b
		 JOIN accounts a ON a.id = b.company_id
		 WHERE b.id = ?`, id)
	var b model.Battery
	var desc, address, phone sql.NullString
	var p CompanyProfile
	err := row.Scan(&b.ID, &b.CompanyID, &b.Name, &b.Type, &desc, &b.Quantity, &b.CreatedAt,
		&p.FullName, &address, &phone)
	if err != nil {
		return nil, nil, err
	}
	if desc.Valid {
		v := desc.String
		b.Description = &v
	}
	p.ID = b.CompanyID
	if address.Valid {
		v := address.String
		p.Address = &v
	}
	if phone.Valid {
		v := phone.String
		p.Phone = &v
	}
	return &b, &p, nil
}

// DistinctTypes returns the sorted set of all battery types across the
// system, used by clients to build the browse filter selector.
func (r *BatteryRepo) DistinctTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT type FROM batteries ORDER BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	types := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// CompanyListing is one company in the public browse view along with
// its advertised batteries.
type CompanyListing struct {
	CompanyProfile
	Batteries []model.Battery `json:"batteries"`
}

// CompaniesWithBatteries returns every company holding at least one
// battery, optionally restricted to companies with a battery of the
// given type. Each company carries its full battery list so callers
// can render availability without extra round trips.
func (r *BatteryRepo) CompaniesWithBatteries(ctx context.Context, typeFilter string) ([]CompanyListing, error) {
	q := `SELECT DISTINCT a.id, a.full_name, a.address, a.phone
	      FROM accounts a
	      JOIN batteries b ON b.company_id = a.id
	      WHERE a.account_type = ?`
	args := []interface{}{model.AccountCompany}
	if strings.TrimSpace(typeFilter) != "" {
		q += ` AND EXISTS (SELECT 1 FROM batteries bt WHERE bt.company_id = a.id AND bt.type = ?)`
		args = append(args, typeFilter)
	}
	q += ` ORDER BY a.full_name`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	listings := make([]CompanyListing, 0)
	index := make(map[string]int)
	for rows.Next() {
		var l CompanyListing
		var address, phone sql.NullString
		if err := rows.Scan(&l.ID, &l.FullName, &address, &phone); err != nil {
			return nil, err
		}
		if address.Valid {
			v := address.String
			l.Address = &v
		}
		if phone.Valid {
			v := phone.String
			l.Phone = &v
		}
		l.Batteries = []model.Battery{}
		index[l.ID] = len(listings)
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return listings, nil
	}
	// Fetch batteries for all listed companies in a single query.
	ids := make([]interface{}, 0, len(listings))
	placeholders := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
		placeholders = append(placeholders, "?")
	}
	bq := `SELECT ` + batteryColumns + ` FROM batteries
	       WHERE company_id IN (` + strings.Join(placeholders, ",") + `)
	       ORDER BY company_id, created_at DESC, id DESC`
	brows, err := r.db.QueryContext(ctx, bq, ids...)
	if err != nil {
		return nil, err
	}
	defer brows.Close()
	for brows.Next() {
		b, err := scanBattery(brows.Scan)
		if err != nil {
			return nil, err
		}
		if idx, ok := index[b.CompanyID]; ok {
			listings[idx].Batteries = append(listings[idx].Batteries, *b)
		}
	}
	return listings, brows.Err()
}

// GetCompanyListing returns a single company with its batteries, or
// sql.ErrNoRows when the id is absent or not a company.
func (r *BatteryRepo) GetCompanyListing(ctx context.Context, companyID string) (*CompanyListing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, address, phone FROM accounts WHERE id=? AND account_type=? LIMIT 1`,
		companyID, model.AccountCompany)
	var l CompanyListing
	var address, phone sql.NullString
	if err := row.Scan(&l.ID, &l.FullName, &address, &phone); err != nil {
		return nil, err
	}
	if address.Valid {
		v := address.String
		l.Address = &v
	}
	if phone.Valid {
		v := phone.String
		l.Phone = &v
	}
	batteries, err := r.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	l.Batteries = batteries
	return &l, nil
}

// CountByCompany returns the number of batteries a company holds.
func (r *BatteryRepo) CountByCompany(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM batteries WHERE company_id=?`, companyID).Scan(&n)
	return n, err
}

// HasAvailable reports whether the company holds a battery with the
// given name and quantity > 0. Checked at appointment creation; stock
// is not reserved until completion.
func (r *BatteryRepo) HasAvailable(ctx context.Context, companyID, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM batteries WHERE company_id=? AND name=? AND quantity > 0)`,
		companyID, name).Scan(&exists)
	return exists, err
}

// ExistsByNameTx reports, inside the caller's transaction, whether the
// company holds any battery with the given name regardless of stock.
// Used to distinguish insufficient stock from a vanished battery.
func (r *BatteryRepo) ExistsByNameTx(ctx context.Context, tx *sql.Tx, companyID, name string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM batteries WHERE company_id=? AND name=?)`,
		companyID, name).Scan(&exists)
	return exists, err
}

// TakeOneTx atomically decrements the stock of the company's battery
// with the given name, refusing to go below zero. Returns the number
// of affected rows: 1 when a unit was taken, 0 when no battery of that
// name has stock left (or exists at all). The conditional WHERE is
// what prevents the read-check-write lost-update race under
// concurrent completions.
func (r *BatteryRepo) TakeOneTx(ctx context.Context, tx *sql.Tx, companyID, name string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE batteries SET quantity = quantity - 1
		 WHERE company_id=? AND name=? AND quantity > 0
		 ORDER BY id LIMIT 1`,
		companyID, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RestoreOneTx atomically increments the stock of the company's
// battery with the given name, capped at the quantity ceiling. A
// missing battery (renamed or deleted since completion) is not an
// error: the status change proceeds and the unit is simply lost, as
// nothing links the appointment to a battery row.
func (r *BatteryRepo) RestoreOneTx(ctx context.Context, tx *sql.Tx, companyID, name string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE batteries SET quantity = quantity + 1
		 WHERE company_id=? AND name=? AND quantity < ?
		 ORDER BY id LIMIT 1`,
		companyID, name, model.BatteryQuantityMax)
	return err
}
