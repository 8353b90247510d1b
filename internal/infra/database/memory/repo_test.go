package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
)

func TestUsers(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	r := New()

	u, err := r.CreateUser(ctx, domain.NewUser{Email: "a@x.com", Name: "A", Role: domain.RoleLearner, PassHash: []byte("h")})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.ID).NotTo(Equal(uuid.Nil))

	_, err = r.CreateUser(ctx, domain.NewUser{Email: "a@x.com", Name: "B"})
	g.Expect(err).To(MatchError(domain.ErrConflict))

	got, err := r.UserByEmail(ctx, "a@x.com")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got.ID).To(Equal(u.ID))

	_, err = r.UserByID(ctx, uuid.New())
	g.Expect(err).To(MatchError(domain.ErrNotFound))
}

func TestVotes(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	r := New()
	alice, bob := uuid.New(), uuid.New()
	p := r.AddPost(alice, "t", "c")
	req := domain.VoteRequest{TargetID: p.ID.String(), TargetType: domain.TargetPost, VoteType: domain.VoteUp}

	c, err := r.UpsertVote(ctx, alice, req)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Upvotes).To(BeEquivalentTo(1))
	g.Expect(*c.UserVote).To(Equal(domain.VoteUp))

	// повторный голос меняет тип, а не добавляет второй
	req.VoteType = domain.VoteDown
	c, err = r.UpsertVote(ctx, alice, req)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Upvotes).To(BeZero())
	g.Expect(c.Downvotes).To(BeEquivalentTo(1))

	req.VoteType = domain.VoteUp
	_, err = r.UpsertVote(ctx, bob, req)
	g.Expect(err).NotTo(HaveOccurred())

	c, err = r.VoteCounts(ctx, req.Target(), nil)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c).To(Equal(domain.VoteCounts{Upvotes: 1, Downvotes: 1}))

	c, err = r.RemoveVote(ctx, alice, req.Target())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(c.Downvotes).To(BeZero())
	g.Expect(c.UserVote).To(BeNil())

	_, err = r.RemoveVote(ctx, alice, req.Target())
	g.Expect(err).To(MatchError(domain.ErrNotFound))

	_, err = r.UpsertVote(ctx, alice, domain.VoteRequest{TargetID: uuid.NewString(), TargetType: domain.TargetComment, VoteType: domain.VoteUp})
	g.Expect(err).To(MatchError(domain.ErrNotFound))

	_, err = r.VoteCounts(ctx, domain.VoteTarget{TargetID: "p1", TargetType: domain.TargetPost}, nil)
	g.Expect(err).To(MatchError(domain.ErrBadParams))
}

func TestCommentsPaging(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	r := New()
	author := uuid.New()
	p := r.AddPost(author, "t", "c")
	for i := 0; i < 5; i++ {
		r.AddComment(p.ID, author, "c")
	}

	page, err := r.CommentsByPost(ctx, p.ID, domain.ListParams{Page: 2, Limit: 2})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(page.Total).To(BeEquivalentTo(5))
	g.Expect(page.Data).To(HaveLen(2))

	page, err = r.CommentsByPost(ctx, p.ID, domain.ListParams{Page: 4, Limit: 2})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(page.Data).To(BeEmpty())

	_, err = r.CommentsByPost(ctx, p.ID, domain.ListParams{SortBy: "nope"})
	g.Expect(err).To(MatchError(domain.ErrBadParams))

	_, err = r.CommentsByPost(ctx, uuid.New(), domain.ListParams{})
	g.Expect(err).To(MatchError(domain.ErrNotFound))
}
