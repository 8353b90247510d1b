// Package memory — репозиторий в памяти процесса: локальный запуск без Postgres и тесты.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EgorLis/eng-community/internal/domain"
)

var (
	_ domain.UsersRepo = (*Repo)(nil)
	_ domain.VotesRepo = (*Repo)(nil)
	_ domain.PostsRepo = (*Repo)(nil)
)

type voteKey struct {
	user   domain.UserID
	target domain.VoteTarget
}

type Repo struct {
	mu       sync.RWMutex
	users    map[domain.UserID]domain.User
	byEmail  map[string]domain.UserID
	posts    map[domain.PostID]domain.Post
	comments map[domain.CommentID]domain.Comment
	votes    map[voteKey]domain.VoteType
	now      func() time.Time
}

func New() *Repo {
	return &Repo{
		users:    map[domain.UserID]domain.User{},
		byEmail:  map[string]domain.UserID{},
		posts:    map[domain.PostID]domain.Post{},
		comments: map[domain.CommentID]domain.Comment{},
		votes:    map[voteKey]domain.VoteType{},
		now:      time.Now,
	}
}

func (r *Repo) Close()                     {}
func (r *Repo) Ping(context.Context) error { return nil }

func (r *Repo) CreateUser(_ context.Context, nu domain.NewUser) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[nu.Email]; ok {
		return domain.User{}, fmt.Errorf("%w: email %s", domain.ErrConflict, nu.Email)
	}
	u := domain.User{
		ID:        uuid.New(),
		Email:     nu.Email,
		Name:      nu.Name,
		Role:      nu.Role,
		Bio:       nu.Bio,
		PassHash:  append([]byte(nil), nu.PassHash...),
		CreatedAt: r.now().UTC(),
	}
	r.users[u.ID] = u
	r.byEmail[u.Email] = u.ID
	return u, nil
}

func (r *Repo) UserByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", domain.ErrNotFound, email)
	}
	return r.users[id], nil
}

func (r *Repo) UserByID(_ context.Context, id domain.UserID) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return u, nil
}

// AddPost / AddComment — наполнение данными (контента через API нет)
func (r *Repo) AddPost(author domain.UserID, title, content string) domain.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := domain.Post{ID: uuid.New(), AuthorID: author, Title: title, Content: content, CreatedAt: r.now().UTC()}
	r.posts[p.ID] = p
	return p
}

func (r *Repo) AddComment(post domain.PostID, author domain.UserID, content string) domain.Comment {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := domain.Comment{ID: uuid.New(), PostID: post, AuthorID: author, Content: content, CreatedAt: r.now().UTC()}
	r.comments[c.ID] = c
	return c
}

func (r *Repo) UpsertVote(_ context.Context, user domain.UserID, req domain.VoteRequest) (domain.VoteCounts, error) {
	if err := req.Validate(); err != nil {
		return domain.VoteCounts{}, err
	}
	t, err := canonical(req.Target())
	if err != nil {
		return domain.VoteCounts{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.targetExists(t); err != nil {
		return domain.VoteCounts{}, err
	}
	r.votes[voteKey{user: user, target: t}] = req.VoteType
	return r.counts(t, &user), nil
}

func (r *Repo) RemoveVote(_ context.Context, user domain.UserID, t domain.VoteTarget) (domain.VoteCounts, error) {
	t, err := canonical(t)
	if err != nil {
		return domain.VoteCounts{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := voteKey{user: user, target: t}
	if _, ok := r.votes[k]; !ok {
		return domain.VoteCounts{}, fmt.Errorf("%w: vote %s", domain.ErrNotFound, t)
	}
	delete(r.votes, k)
	return r.counts(t, &user), nil
}

func (r *Repo) VoteCounts(_ context.Context, t domain.VoteTarget, user *domain.UserID) (domain.VoteCounts, error) {
	t, err := canonical(t)
	if err != nil {
		return domain.VoteCounts{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.targetExists(t); err != nil {
		return domain.VoteCounts{}, err
	}
	return r.counts(t, user), nil
}

func (r *Repo) PostByID(_ context.Context, id domain.PostID, viewer *domain.UserID) (domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return domain.Post{}, fmt.Errorf("%w: post %s", domain.ErrNotFound, id)
	}
	c := r.counts(domain.VoteTarget{TargetType: domain.TargetPost, TargetID: id.String()}, viewer)
	p.Upvotes, p.Downvotes, p.UserVote = c.Upvotes, c.Downvotes, c.UserVote
	return p, nil
}

func (r *Repo) CommentsByPost(_ context.Context, postID domain.PostID, lp domain.ListParams) (domain.Page[domain.Comment], error) {
	lp = lp.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.posts[postID]; !ok {
		return domain.Page[domain.Comment]{}, fmt.Errorf("%w: post %s", domain.ErrNotFound, postID)
	}

	all := make([]domain.Comment, 0)
	for _, c := range r.comments {
		if c.PostID != postID {
			continue
		}
		cnt := r.counts(domain.VoteTarget{TargetType: domain.TargetComment, TargetID: c.ID.String()}, nil)
		c.Upvotes, c.Downvotes = cnt.Upvotes, cnt.Downvotes
		all = append(all, c)
	}

	less, err := commentLess(lp.SortBy)
	if err != nil {
		return domain.Page[domain.Comment]{}, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		if lp.SortOrder == "asc" {
			return less(all[i], all[j])
		}
		return less(all[j], all[i])
	})

	page := domain.Page[domain.Comment]{Total: int64(len(all)), Page: lp.Page, Limit: lp.Limit, Data: []domain.Comment{}}
	from := (lp.Page - 1) * lp.Limit
	if from < len(all) {
		to := min(from+lp.Limit, len(all))
		page.Data = append(page.Data, all[from:to]...)
	}
	return page, nil
}

func commentLess(sortBy string) (func(a, b domain.Comment) bool, error) {
	switch sortBy {
	case "createdAt":
		return func(a, b domain.Comment) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID.String() < b.ID.String()
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}, nil
	case "upvotes":
		return func(a, b domain.Comment) bool { return a.Upvotes < b.Upvotes }, nil
	case "downvotes":
		return func(a, b domain.Comment) bool { return a.Downvotes < b.Downvotes }, nil
	}
	return nil, fmt.Errorf("%w: sortBy %q", domain.ErrBadParams, sortBy)
}

// canonical проверяет тип и приводит id к каноничной записи uuid
func canonical(t domain.VoteTarget) (domain.VoteTarget, error) {
	if !t.TargetType.Valid() {
		return t, fmt.Errorf("%w: target type %q", domain.ErrBadParams, t.TargetType)
	}
	id, err := uuid.Parse(t.TargetID)
	if err != nil {
		return t, fmt.Errorf("%w: target id %q", domain.ErrBadParams, t.TargetID)
	}
	t.TargetID = id.String()
	return t, nil
}

// вызывается под r.mu, t уже каноничный
func (r *Repo) targetExists(t domain.VoteTarget) error {
	id := uuid.MustParse(t.TargetID)
	var ok bool
	switch t.TargetType {
	case domain.TargetPost:
		_, ok = r.posts[id]
	case domain.TargetComment:
		_, ok = r.comments[id]
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, t)
	}
	return nil
}

// вызывается под r.mu
func (r *Repo) counts(t domain.VoteTarget, user *domain.UserID) domain.VoteCounts {
	var c domain.VoteCounts
	for k, v := range r.votes {
		if k.target != t {
			continue
		}
		if v == domain.VoteUp {
			c.Upvotes++
		} else {
			c.Downvotes++
		}
		if user != nil && k.user == *user {
			vt := v
			c.UserVote = &vt
		}
	}
	return c
}
