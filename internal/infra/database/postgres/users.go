package postgres

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/eng-community/internal/domain"
)

var userColumns = []string{"id", "email", "name", "role", "bio", "pass_hash", "created_at"}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.Bio, &u.PassHash, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (r *PGRepo) CreateUser(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	q := r.qb().Insert(r.table("users")).
		Columns("email", "name", "role", "bio", "pass_hash").
		Values(nu.Email, nu.Name, string(nu.Role), nu.Bio, nu.PassHash).
		Suffix("RETURNING id, email, name, role, bio, pass_hash, created_at")

	sqlStr, args, _ := q.ToSql()
	r.logSQL("CreateUser", sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreateUser scan error after %s: %v", time.Since(start), err)
		return domain.User{}, mapErr(err)
	}
	r.logger.Printf("CreateUser ok in %s id=%s", time.Since(start), u.ID)
	return u, nil
}

func (r *PGRepo) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.userBy(ctx, "UserByEmail", sq.Eq{"email": email})
}

func (r *PGRepo) UserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	return r.userBy(ctx, "UserByID", sq.Eq{"id": id})
}

func (r *PGRepo) userBy(ctx context.Context, op string, where sq.Eq) (domain.User, error) {
	q := r.qb().Select(userColumns...).
		From(r.table("users")).
		Where(where)

	sqlStr, args, _ := q.ToSql()
	r.logSQL(op, sqlStr, args)

	start := time.Now()
	u, err := scanUser(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("%s scan error after %s: %v", op, time.Since(start), err)
		return domain.User{}, mapErr(err)
	}
	r.logger.Printf("%s ok in %s id=%s", op, time.Since(start), u.ID)
	return u, nil
}
