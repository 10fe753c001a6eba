package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/aura/internal/database/repository"
	"github.com/jask/aura/internal/health"
)

// SubjectID derives the stable subject id for an email address.
func SubjectID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("user:"+strings.ToLower(strings.TrimSpace(email)))).String()
}

// EnsureSubject returns the subject registered under email, creating it on
// first use. It is idempotent and safe to run on every startup.
func EnsureSubject(ctx context.Context, db *sql.DB, name, email string) (health.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return health.User{}, fmt.Errorf("subject email required")
	}
	users := repository.NewUserRepo(db)
	existing, err := users.ByEmail(ctx, email)
	if err != nil {
		return health.User{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	u := health.User{
		ID:         SubjectID(email),
		Name:       strings.TrimSpace(name),
		Email:      email,
		JoinedDate: Now(),
		Chronotype: health.ChronotypeUnknown,
	}
	if err := users.Upsert(ctx, u); err != nil {
		return health.User{}, fmt.Errorf("create subject: %w", err)
	}
	return u, nil
}
