package client

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"github.com/EgorLis/eng-community/internal/api"
	"github.com/EgorLis/eng-community/internal/auth/blacklist"
	"github.com/EgorLis/eng-community/internal/auth/password"
	"github.com/EgorLis/eng-community/internal/auth/token"
	"github.com/EgorLis/eng-community/internal/domain"
	kvmem "github.com/EgorLis/eng-community/internal/infra/cache/memory"
	credmem "github.com/EgorLis/eng-community/internal/infra/credstore/memory"
	"github.com/EgorLis/eng-community/internal/infra/database/memory"
	"github.com/EgorLis/eng-community/internal/transport/web"
)

// Клиент против настоящего роутера с репозиторием в памяти
type harness struct {
	app     *App
	creds   *credmem.Store
	repo    *memory.Repo
	expired atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := memory.New()
	kv := kvmem.New()
	deps := web.Deps{
		Repos: web.Repos{Users: repo, Votes: repo, Posts: repo},
		Auth: web.AuthDeps{
			Hasher:    password.New(&password.LightParams),
			Tokens:    token.New("test-secret", "eng-community", time.Minute, time.Hour),
			Blacklist: blacklist.NewStore(kv),
		},
		Cache: kv,
	}
	quiet := log.New(io.Discard, "", 0)
	srv := httptest.NewServer(web.NewRouter(deps, quiet))
	t.Cleanup(srv.Close)

	h := &harness{creds: credmem.New(domain.Credentials{}), repo: repo}
	h.app = New(Options{
		BaseURL:          srv.URL + "/v1",
		Timeout:          5 * time.Second,
		OnSessionExpired: func() { h.expired.Add(1) },
	}, h.creds, quiet)
	return h
}

func (h *harness) register(t *testing.T) domain.User {
	t.Helper()
	u, err := h.app.Register(context.Background(), api.RegisterRequest{Email: "a@x.com", Password: "secret1", Name: "Alice"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestLoginStoresPairAndSeedsProfile(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)
	h.register(t)
	g.Expect(h.creds.Clear(ctx)).To(Succeed())

	u, err := h.app.Login(ctx, "a@x.com", "secret1")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.Email).To(Equal("a@x.com"))

	creds, _ := h.creds.Load(ctx)
	g.Expect(creds.AccessToken).NotTo(BeEmpty())
	g.Expect(creds.RefreshToken).NotTo(BeEmpty())

	raw, ok := h.app.Cache().Get(domain.CacheKeyProfile())
	g.Expect(ok).To(BeTrue())
	g.Expect(string(raw)).To(ContainSubstring(`"email":"a@x.com"`))

	// неверный пароль при живой сессии: 401 без refresh, пара не тронута
	_, err = h.app.Login(ctx, "a@x.com", "wrong-pass")
	g.Expect(err).To(MatchError(domain.ErrUnauthorized))
	g.Expect(h.expired.Load()).To(BeZero())
	again, _ := h.creds.Load(ctx)
	g.Expect(again).To(Equal(creds))
}

func TestWrongPasswordWithoutSessionIsUnauthorized(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)
	h.register(t)
	g.Expect(h.creds.Clear(ctx)).To(Succeed())

	_, err := h.app.Login(ctx, "a@x.com", "wrong-pass")
	g.Expect(err).To(MatchError(domain.ErrUnauthorized))
	g.Expect(err).NotTo(MatchError(domain.ErrSessionExpired))
	g.Expect(h.expired.Load()).To(BeZero())

	creds, _ := h.creds.Load(ctx)
	g.Expect(creds.Empty()).To(BeTrue())
}

func TestExpiredAccessIsRefreshedTransparently(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)
	h.register(t)
	h.app.Cache().Clear()

	g.Expect(h.creds.SetAccess(ctx, "expired-access")).To(Succeed())

	u, err := h.app.Me(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.Name).To(Equal("Alice"))
	g.Expect(h.expired.Load()).To(BeZero())

	creds, _ := h.creds.Load(ctx)
	g.Expect(creds.AccessToken).NotTo(Equal("expired-access"))
}

func TestRevokedRefreshExpiresSession(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)
	h.register(t)
	stolen, _ := h.creds.Load(ctx)

	g.Expect(h.app.Logout(ctx)).To(Succeed())
	creds, _ := h.creds.Load(ctx)
	g.Expect(creds.Empty()).To(BeTrue())
	g.Expect(h.app.Cache().Keys()).To(BeEmpty())

	// старая пара после logout: refresh отозван на сервере
	g.Expect(h.creds.Save(ctx, domain.Credentials{AccessToken: "expired-access", RefreshToken: stolen.RefreshToken})).To(Succeed())
	_, err := h.app.Me(ctx)
	g.Expect(err).To(MatchError(domain.ErrSessionExpired))
	g.Expect(err).To(MatchError(domain.ErrRefreshRejected))
	g.Expect(h.expired.Load()).To(BeEquivalentTo(1))

	creds, _ = h.creds.Load(ctx)
	g.Expect(creds.Empty()).To(BeTrue())
}

func TestOptimisticVoteConfirmedByServer(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)
	u := h.register(t)
	p := h.repo.AddPost(u.ID, "Articles", "a/an/the")
	pid := p.ID.String()

	raw, err := h.app.Post(ctx, pid)
	g.Expect(err).NotTo(HaveOccurred())
	var before domain.Post
	g.Expect(json.Unmarshal(raw, &before)).To(Succeed())
	g.Expect(before.Title).To(Equal("Articles"))
	g.Expect(before.Upvotes).To(BeZero())
	g.Expect(before.UserVote).To(BeNil())

	counts, err := h.app.Vote(ctx, domain.VoteRequest{TargetID: pid, TargetType: domain.TargetPost, VoteType: domain.VoteUp})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(counts.Upvotes).To(BeEquivalentTo(1))
	g.Expect(*counts.UserVote).To(Equal(domain.VoteUp))

	// после settle пост устарел, повторное чтение идёт на сервер
	g.Expect(h.app.Cache().Stale(domain.CacheKeyPost(pid))).To(BeTrue())
	raw, err = h.app.Post(ctx, pid)
	g.Expect(err).NotTo(HaveOccurred())
	var got domain.Post
	g.Expect(json.Unmarshal(raw, &got)).To(Succeed())
	g.Expect(got.Upvotes).To(BeEquivalentTo(1))
	g.Expect(*got.UserVote).To(Equal(domain.VoteUp))

	stats, err := h.app.VoteStats(ctx, domain.VoteTarget{TargetID: pid, TargetType: domain.TargetPost})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(stats.Upvotes).To(BeEquivalentTo(1))

	g.Expect(h.app.RemoveVote(ctx, domain.VoteTarget{TargetID: pid, TargetType: domain.TargetPost})).To(Succeed())
	g.Expect(h.app.Cache().Stale(domain.CacheKeyPost(pid))).To(BeTrue())
}

func TestOptimisticVoteRolledBackOnRejection(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)
	h.register(t)

	// поста нет на сервере, но он есть в кеше: сервер ответит 404
	pid := uuid.NewString()
	key := domain.CacheKeyPost(pid)
	original := []byte(`{"id":"` + pid + `","upvotes":5,"downvotes":1}`)
	h.app.Cache().Set(key, original)

	_, err := h.app.Vote(ctx, domain.VoteRequest{TargetID: pid, TargetType: domain.TargetPost, VoteType: domain.VoteUp})
	g.Expect(err).To(MatchError(domain.ErrMutation))
	g.Expect(err).To(MatchError(domain.ErrNotFound))

	cur, ok := h.app.Cache().Get(key)
	g.Expect(ok).To(BeTrue())
	g.Expect(cur).To(Equal(original))
}

func TestCommentsCachedPerParams(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)
	u := h.register(t)
	p := h.repo.AddPost(u.ID, "t", "c")
	h.repo.AddComment(p.ID, u.ID, "first")

	raw, err := h.app.Comments(ctx, p.ID.String(), domain.ListParams{})
	g.Expect(err).NotTo(HaveOccurred())
	var page domain.Page[domain.Comment]
	g.Expect(json.Unmarshal(raw, &page)).To(Succeed())
	g.Expect(page.Total).To(BeEquivalentTo(1))

	key := domain.CacheKeyComments(p.ID.String(), domain.ListParams{}.Key())
	g.Expect(h.app.Cache().Stale(key)).To(BeFalse())
}

func TestRegisterWithBioReachesProfile(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	h := newHarness(t)

	u, err := h.app.Register(ctx, api.RegisterRequest{Email: "b@x.com", Password: "secret1", Name: "Bob", Bio: "teaches phrasal verbs"})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.Bio).To(Equal("teaches phrasal verbs"))

	h.app.Cache().Clear()
	me, err := h.app.Me(ctx)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(me.Bio).To(Equal("teaches phrasal verbs"))
}
