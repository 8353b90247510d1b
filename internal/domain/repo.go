package domain

import "context"

type NewUser struct {
	Email    string
	Name     string
	Role     Role
	Bio      string
	PassHash []byte
}

type UsersRepo interface {
	Close()
	Ping(context.Context) error
	CreateUser(ctx context.Context, u NewUser) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id UserID) (User, error)
}

type VotesRepo interface {
	// UpsertVote — один голос пользователя на цель, повторный голос меняет тип
	UpsertVote(ctx context.Context, user UserID, req VoteRequest) (VoteCounts, error)
	RemoveVote(ctx context.Context, user UserID, t VoteTarget) (VoteCounts, error)
	// user может быть nil — тогда UserVote не заполняется
	VoteCounts(ctx context.Context, t VoteTarget, user *UserID) (VoteCounts, error)
}

type PostsRepo interface {
	PostByID(ctx context.Context, id PostID, viewer *UserID) (Post, error)
	CommentsByPost(ctx context.Context, postID PostID, p ListParams) (Page[Comment], error)
}
