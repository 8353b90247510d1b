package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/EgorLis/eng-community/internal/domain"
)

// querier — общее у pgxpool.Pool и pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const upsertVoteSuffix = "ON CONFLICT (user_id, target_type, target_id) " +
	"DO UPDATE SET vote_type = EXCLUDED.vote_type, updated_at = now()"

func targetUUID(t domain.VoteTarget) (uuid.UUID, error) {
	id, err := uuid.Parse(t.TargetID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: target id %q", domain.ErrBadParams, t.TargetID)
	}
	return id, nil
}

func (r *PGRepo) UpsertVote(ctx context.Context, user domain.UserID, req domain.VoteRequest) (domain.VoteCounts, error) {
	if err := req.Validate(); err != nil {
		return domain.VoteCounts{}, err
	}
	t := req.Target()
	id, err := targetUUID(t)
	if err != nil {
		return domain.VoteCounts{}, err
	}

	start := time.Now()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.VoteCounts{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := r.targetExists(ctx, tx, t.TargetType, id); err != nil {
		return domain.VoteCounts{}, err
	}

	q := r.qb().Insert(r.table("votes")).
		Columns("user_id", "target_type", "target_id", "vote_type").
		Values(user, string(t.TargetType), id, string(req.VoteType)).
		Suffix(upsertVoteSuffix)
	sqlStr, args, _ := q.ToSql()
	r.logSQL("UpsertVote", sqlStr, args)
	if _, err := tx.Exec(ctx, sqlStr, args...); err != nil {
		r.logger.Printf("UpsertVote exec error after %s: %v", time.Since(start), err)
		return domain.VoteCounts{}, mapErr(err)
	}

	counts, err := r.voteCounts(ctx, tx, t.TargetType, id, &user)
	if err != nil {
		return domain.VoteCounts{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.VoteCounts{}, fmt.Errorf("commit: %w", err)
	}
	r.logger.Printf("UpsertVote ok in %s target=%s up=%d down=%d", time.Since(start), t, counts.Upvotes, counts.Downvotes)
	return counts, nil
}

func (r *PGRepo) RemoveVote(ctx context.Context, user domain.UserID, t domain.VoteTarget) (domain.VoteCounts, error) {
	if !t.TargetType.Valid() {
		return domain.VoteCounts{}, fmt.Errorf("%w: target type %q", domain.ErrBadParams, t.TargetType)
	}
	id, err := targetUUID(t)
	if err != nil {
		return domain.VoteCounts{}, err
	}

	q := r.qb().Delete(r.table("votes")).
		Where(sq.Eq{"user_id": user, "target_type": string(t.TargetType), "target_id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("RemoveVote", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("RemoveVote exec error after %s: %v", time.Since(start), err)
		return domain.VoteCounts{}, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.VoteCounts{}, fmt.Errorf("%w: vote %s", domain.ErrNotFound, t)
	}
	r.logger.Printf("RemoveVote ok in %s target=%s", time.Since(start), t)
	return r.voteCounts(ctx, r.pool, t.TargetType, id, &user)
}

func (r *PGRepo) VoteCounts(ctx context.Context, t domain.VoteTarget, user *domain.UserID) (domain.VoteCounts, error) {
	if !t.TargetType.Valid() {
		return domain.VoteCounts{}, fmt.Errorf("%w: target type %q", domain.ErrBadParams, t.TargetType)
	}
	id, err := targetUUID(t)
	if err != nil {
		return domain.VoteCounts{}, err
	}
	if err := r.targetExists(ctx, r.pool, t.TargetType, id); err != nil {
		return domain.VoteCounts{}, err
	}
	return r.voteCounts(ctx, r.pool, t.TargetType, id, user)
}

func (r *PGRepo) targetExists(ctx context.Context, db querier, tt domain.TargetType, id uuid.UUID) error {
	table := "posts"
	if tt == domain.TargetComment {
		table = "comments"
	}
	q := r.qb().Select("1").From(r.table(table)).Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("targetExists", sqlStr, args)

	var one int
	if err := db.QueryRow(ctx, sqlStr, args...).Scan(&one); err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *PGRepo) voteCounts(ctx context.Context, db querier, tt domain.TargetType, id uuid.UUID, user *domain.UserID) (domain.VoteCounts, error) {
	q := r.qb().Select(
		"COUNT(*) FILTER (WHERE vote_type = 'upvote')",
		"COUNT(*) FILTER (WHERE vote_type = 'downvote')",
	).From(r.table("votes")).
		Where(sq.Eq{"target_type": string(tt), "target_id": id})
	sqlStr, args, _ := q.ToSql()
	r.logSQL("VoteCounts", sqlStr, args)

	var c domain.VoteCounts
	if err := db.QueryRow(ctx, sqlStr, args...).Scan(&c.Upvotes, &c.Downvotes); err != nil {
		return domain.VoteCounts{}, mapErr(err)
	}
	if user == nil {
		return c, nil
	}

	uq := r.qb().Select("vote_type").From(r.table("votes")).
		Where(sq.Eq{"user_id": *user, "target_type": string(tt), "target_id": id})
	sqlStr, args, _ = uq.ToSql()
	r.logSQL("VoteCounts.user", sqlStr, args)

	var vt string
	err := db.QueryRow(ctx, sqlStr, args...).Scan(&vt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return domain.VoteCounts{}, mapErr(err)
	default:
		v := domain.VoteType(vt)
		c.UserVote = &v
	}
	return c, nil
}
