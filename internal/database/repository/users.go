package repository

import (
	"context"
	"database/sql"

	"github.com/jask/aura/internal/health"
)

// UserRepo handles tracked subjects.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Upsert(ctx context.Context, u health.User) error {
	if u.Chronotype == "" {
		u.Chronotype = health.ChronotypeUnknown
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO users(id, name, email, joined_date, chronotype, long_term_goals, is_calibrated)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 email=excluded.email,
	 chronotype=excluded.chronotype,
	 long_term_goals=excluded.long_term_goals,
	 is_calibrated=excluded.is_calibrated;
	`, u.ID, u.Name, u.Email, u.JoinedDate.UTC(), string(u.Chronotype), encodeList(u.LongTermGoals), u.IsCalibrated)
	return err
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*health.User, error) {
	return r.one(ctx, `WHERE id = ?`, id)
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*health.User, error) {
	return r.one(ctx, `WHERE email = ?`, email)
}

func (r *UserRepo) one(ctx context.Context, where string, arg any) (*health.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, email, joined_date, chronotype, long_term_goals, is_calibrated FROM users `+where, arg)
	var (
		u     health.User
		chron string
		goals string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.JoinedDate, &chron, &goals, &u.IsCalibrated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.Chronotype = health.Chronotype(chron)
	var err error
	if u.LongTermGoals, err = decodeList(goals); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateChronotype stores a detected chronotype.
func (r *UserRepo) UpdateChronotype(ctx context.Context, id string, c health.Chronotype) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET chronotype = ? WHERE id = ?`, string(c), id)
	return err
}

// SetCalibrated flips the calibration flag once enough history exists.
func (r *UserRepo) SetCalibrated(ctx context.Context, id string, calibrated bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_calibrated = ? WHERE id = ?`, calibrated, id)
	return err
}
