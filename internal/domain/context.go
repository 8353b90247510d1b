package domain

import "context"

// Пользователь из access-токена; кладут mw.RequireAuth и mw.OptionalAuth
type userCtxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func UserFromCtx(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(User)
	return u, ok
}

// ViewerFromCtx — id для my_vote в счётчиках; nil у анонимного запроса
func ViewerFromCtx(ctx context.Context) *UserID {
	u, ok := UserFromCtx(ctx)
	if !ok {
		return nil
	}
	return &u.ID
}
