package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/EgorLis/eng-community/internal/domain"
)

// сортировка только по белому списку колонок
var commentSort = map[string]string{
	"createdAt": "c.created_at",
	"upvotes":   "upvotes",
	"downvotes": "downvotes",
}

const (
	upvotesExpr   = "(SELECT COUNT(*) FROM %s v WHERE v.target_type = '%s' AND v.target_id = %s.id AND v.vote_type = 'upvote') AS upvotes"
	downvotesExpr = "(SELECT COUNT(*) FROM %s v WHERE v.target_type = '%s' AND v.target_id = %s.id AND v.vote_type = 'downvote') AS downvotes"
)

func (r *PGRepo) countCols(tt domain.TargetType, alias string) []string {
	votes := r.table("votes")
	return []string{
		fmt.Sprintf(upvotesExpr, votes, tt, alias),
		fmt.Sprintf(downvotesExpr, votes, tt, alias),
	}
}

func (r *PGRepo) PostByID(ctx context.Context, id domain.PostID, viewer *domain.UserID) (domain.Post, error) {
	cols := append([]string{"p.id", "p.author_id", "p.title", "p.content", "p.created_at"}, r.countCols(domain.TargetPost, "p")...)
	q := r.qb().Select(cols...).
		From(r.table("posts") + " p").
		Where(sq.Eq{"p.id": id})

	sqlStr, args, _ := q.ToSql()
	r.logSQL("PostByID", sqlStr, args)

	start := time.Now()
	var p domain.Post
	err := r.pool.QueryRow(ctx, sqlStr, args...).
		Scan(&p.ID, &p.AuthorID, &p.Title, &p.Content, &p.CreatedAt, &p.Upvotes, &p.Downvotes)
	if err != nil {
		r.logger.Printf("PostByID scan error after %s: %v", time.Since(start), err)
		return domain.Post{}, mapErr(err)
	}

	if viewer != nil {
		c, err := r.voteCounts(ctx, r.pool, domain.TargetPost, p.ID, viewer)
		if err != nil {
			return domain.Post{}, err
		}
		p.UserVote = c.UserVote
	}
	r.logger.Printf("PostByID ok in %s id=%s", time.Since(start), p.ID)
	return p, nil
}

func (r *PGRepo) CommentsByPost(ctx context.Context, postID domain.PostID, lp domain.ListParams) (domain.Page[domain.Comment], error) {
	lp = lp.Normalize()
	orderCol, ok := commentSort[lp.SortBy]
	if !ok {
		return domain.Page[domain.Comment]{}, fmt.Errorf("%w: sortBy %q", domain.ErrBadParams, lp.SortBy)
	}

	start := time.Now()
	if err := r.targetExists(ctx, r.pool, domain.TargetPost, postID); err != nil {
		return domain.Page[domain.Comment]{}, err
	}

	cq := r.qb().Select("COUNT(*)").From(r.table("comments")).Where(sq.Eq{"post_id": postID})
	sqlStr, args, _ := cq.ToSql()
	r.logSQL("CommentsByPost.count", sqlStr, args)

	page := domain.Page[domain.Comment]{Page: lp.Page, Limit: lp.Limit, Data: []domain.Comment{}}
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&page.Total); err != nil {
		return domain.Page[domain.Comment]{}, mapErr(err)
	}

	cols := append([]string{"c.id", "c.post_id", "c.author_id", "c.content", "c.created_at"}, r.countCols(domain.TargetComment, "c")...)
	q := r.qb().Select(cols...).
		From(r.table("comments")+" c").
		Where(sq.Eq{"c.post_id": postID}).
		OrderBy(fmt.Sprintf("%s %s", orderCol, lp.SortOrder), "c.id").
		Limit(uint64(lp.Limit)).
		Offset(uint64((lp.Page - 1) * lp.Limit))
	sqlStr, args, _ = q.ToSql()
	r.logSQL("CommentsByPost", sqlStr, args)

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return domain.Page[domain.Comment]{}, mapErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.Upvotes, &c.Downvotes); err != nil {
			return domain.Page[domain.Comment]{}, err
		}
		page.Data = append(page.Data, c)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[domain.Comment]{}, err
	}
	r.logger.Printf("CommentsByPost ok in %s post=%s n=%d total=%d", time.Since(start), postID, len(page.Data), page.Total)
	return page, nil
}
