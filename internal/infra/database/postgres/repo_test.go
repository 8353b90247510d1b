package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
)

func TestMapErr(t *testing.T) {
	g := NewWithT(t)

	g.Expect(mapErr(pgx.ErrNoRows)).To(MatchError(domain.ErrNotFound))
	g.Expect(mapErr(fmt.Errorf("scan: %w", pgx.ErrNoRows))).To(MatchError(domain.ErrNotFound))

	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	err := mapErr(dup)
	g.Expect(err).To(MatchError(domain.ErrConflict))
	g.Expect(err.Error()).To(ContainSubstring("users_email_key"))

	other := errors.New("boom")
	g.Expect(mapErr(other)).To(BeIdenticalTo(other))
}

func TestCreateSchemaSQL(t *testing.T) {
	g := NewWithT(t)
	g.Expect(createSchemaSQL("community")).To(Equal(`CREATE SCHEMA IF NOT EXISTS "community"`))
	g.Expect(createSchemaSQL(`we"ird`)).To(Equal(`CREATE SCHEMA IF NOT EXISTS "we""ird"`))
}

func TestTargetUUID(t *testing.T) {
	g := NewWithT(t)

	_, err := targetUUID(domain.VoteTarget{TargetType: domain.TargetPost, TargetID: "p1"})
	g.Expect(err).To(MatchError(domain.ErrBadParams))

	id, err := targetUUID(domain.VoteTarget{TargetType: domain.TargetPost, TargetID: "0b7e5c3a-8a6e-4d4b-9d7a-2f1f0c1d2e3f"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(id.String()).To(Equal("0b7e5c3a-8a6e-4d4b-9d7a-2f1f0c1d2e3f"))
}

func TestQueryBuilding(t *testing.T) {
	g := NewWithT(t)
	r := &PGRepo{schema: "public"}

	sqlStr, _, err := r.qb().Insert(r.table("votes")).
		Columns("user_id", "target_type", "target_id", "vote_type").
		Values(1, 2, 3, 4).
		Suffix(upsertVoteSuffix).
		ToSql()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(sqlStr).To(HavePrefix("INSERT INTO public.votes"))
	g.Expect(sqlStr).To(ContainSubstring("VALUES ($1,$2,$3,$4)"))
	g.Expect(sqlStr).To(HaveSuffix("DO UPDATE SET vote_type = EXCLUDED.vote_type, updated_at = now()"))

	cols := r.countCols(domain.TargetComment, "c")
	g.Expect(cols).To(HaveLen(2))
	g.Expect(cols[0]).To(ContainSubstring("v.target_type = 'comment' AND v.target_id = c.id AND v.vote_type = 'upvote'"))
}
