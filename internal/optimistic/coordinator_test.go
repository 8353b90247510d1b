package optimistic

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/querycache"
)

type fakeVoter struct {
	counts domain.VoteCounts
	err    error
	during func()
	calls  int
}

func (f *fakeVoter) Vote(context.Context, domain.VoteRequest) (domain.VoteCounts, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	return f.counts, f.err
}

func newCoordinator() (*Coordinator, *querycache.Store) {
	store := querycache.New()
	return New(store, log.New(io.Discard, "", 0)), store
}

var upvoteP1 = domain.VoteRequest{TargetID: "p1", TargetType: domain.TargetPost, VoteType: domain.VoteUp}

func TestVoteSpeculativeThenRollbackRestoresSnapshot(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	prior := []byte(`{"upvotes":5, "downvotes":1}`)
	store.Set("post:p1", prior)

	boom := errors.New("server said no")
	voter := &fakeVoter{err: boom}
	voter.during = func() {
		v, _ := store.Get("post:p1")
		g.Expect(v).To(MatchJSON(`{"upvotes":6,"downvotes":1}`))
	}

	_, err := Mutate(context.Background(), c, Mutation[domain.VoteRequest, domain.VoteCounts](VoteMutation{API: voter}), upvoteP1)
	g.Expect(err).To(MatchError(domain.ErrMutation))
	g.Expect(err).To(MatchError(boom))
	g.Expect(voter.calls).To(Equal(1))

	v, _ := store.Get("post:p1")
	g.Expect(v).To(Equal(prior))
	g.Expect(store.Stale("post:p1")).To(BeTrue())
	g.Expect(c.InFlight("post:p1")).To(BeZero())
}

func TestVoteSuccessTakesServerValue(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	store.Set("post:p1", []byte(`{"upvotes":5,"downvotes":1}`))
	up := domain.VoteUp
	voter := &fakeVoter{counts: domain.VoteCounts{Upvotes: 9, Downvotes: 2, UserVote: &up}}

	out, err := Mutate(context.Background(), c, Mutation[domain.VoteRequest, domain.VoteCounts](VoteMutation{API: voter}), upvoteP1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Upvotes).To(BeEquivalentTo(9))

	v, _ := store.Get("post:p1")
	g.Expect(v).To(MatchJSON(`{"upvotes":9,"downvotes":2,"userVote":"upvote"}`))
	g.Expect(store.Stale("post:p1")).To(BeTrue())
}

func TestVoteWithoutEntryIsRequestOnly(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	voter := &fakeVoter{err: errors.New("nope")}

	_, err := Mutate(context.Background(), c, Mutation[domain.VoteRequest, domain.VoteCounts](VoteMutation{API: voter}), upvoteP1)
	g.Expect(err).To(MatchError(domain.ErrMutation))
	g.Expect(voter.calls).To(Equal(1))
	_, ok := store.Get("post:p1")
	g.Expect(ok).To(BeFalse())
}

func TestVoteSettleInvalidatesFamily(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	store.Set("post:p1", []byte(`{"upvotes":0,"downvotes":0}`))
	store.Set("post:p2", []byte(`{"upvotes":3,"downvotes":0}`))
	store.Set("comment:c1", []byte(`{"upvotes":1,"downvotes":0}`))

	_, err := Mutate(context.Background(), c, Mutation[domain.VoteRequest, domain.VoteCounts](VoteMutation{API: &fakeVoter{}}), upvoteP1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(store.Stale("post:p2")).To(BeTrue())
	g.Expect(store.Stale("comment:c1")).To(BeFalse())
}

func TestBeginCancelsInFlightRead(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	store.Set("post:p1", []byte(`{"upvotes":1,"downvotes":0}`))
	store.Invalidate("post:p1")

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Fetch(context.Background(), "post:p1", func(ctx context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte(`{"upvotes":1,"downvotes":0,"from":"server"}`), nil
		})
	}()
	<-started

	p, outcome, err := c.Begin("post:p1", func(prev []byte) ([]byte, error) {
		return VoteMutation{}.Apply(prev, upvoteP1)
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(outcome.Applied).To(BeTrue())
	close(release)
	<-done

	v, _ := store.Get("post:p1")
	g.Expect(v).To(MatchJSON(`{"upvotes":2,"downvotes":0}`))
	p.Settle()
}

func TestRollbackIsIdempotent(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()

	g.Expect(c.Rollback("post:p1")).To(Equal(Outcome{Key: "post:p1"}))

	prior := []byte(`{"upvotes":1,"downvotes":1}`)
	store.Set("post:p1", prior)
	p, _, err := c.Begin("post:p1", func(prev []byte) ([]byte, error) { return []byte(`{"x":1}`), nil })
	g.Expect(err).NotTo(HaveOccurred())

	first := c.Rollback("post:p1")
	g.Expect(first.Phase).To(Equal(PhaseRolledBack))
	g.Expect(first.Applied).To(BeTrue())
	g.Expect(first.Value).To(Equal(prior))

	store.Set("post:p1", []byte(`{"later":true}`))
	second := p.Rollback()
	g.Expect(second.Applied).To(BeFalse())
	v, _ := store.Get("post:p1")
	g.Expect(string(v)).To(Equal(`{"later":true}`))

	p.Settle()
	g.Expect(p.Rollback().Applied).To(BeFalse())
	g.Expect(c.Rollback("post:p1").Applied).To(BeFalse())
}

func TestCommitWithoutServerValueKeepsSpeculative(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	store.Set("k", []byte(`{"upvotes":0}`))
	p, _, err := c.Begin("k", func(prev []byte) ([]byte, error) { return []byte(`{"upvotes":1}`), nil })
	g.Expect(err).NotTo(HaveOccurred())

	out := p.Commit(nil)
	g.Expect(out.Phase).To(Equal(PhaseCommitted))
	g.Expect(out.Applied).To(BeFalse())
	g.Expect(string(out.Value)).To(Equal(`{"upvotes":1}`))
	g.Expect(p.Rollback().Applied).To(BeFalse())
	g.Expect(p.Settle().Phase).To(Equal(PhaseSettled))
	_, has := p.Snapshot()
	g.Expect(has).To(BeFalse())
}

func TestRollbackAfterClearDoesNotResurrect(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	store.Set("k", []byte(`{"upvotes":0}`))
	p, _, _ := c.Begin("k", func(prev []byte) ([]byte, error) { return []byte(`{"upvotes":1}`), nil })

	store.Clear()
	g.Expect(p.Rollback().Applied).To(BeFalse())
	_, ok := store.Get("k")
	g.Expect(ok).To(BeFalse())
}

func TestBeginTransformErrorAborts(t *testing.T) {
	g := NewWithT(t)
	c, store := newCoordinator()
	store.Set("k", []byte(`1`))
	_, _, err := c.Begin("k", func(prev []byte) ([]byte, error) { return nil, errors.New("bad") })
	g.Expect(err).To(HaveOccurred())
	g.Expect(c.InFlight("k")).To(BeZero())
	v, _ := store.Get("k")
	g.Expect(string(v)).To(Equal(`1`))
}
