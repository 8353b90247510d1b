package web

import (
	"log"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/EgorLis/eng-community/internal/docs"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	"github.com/EgorLis/eng-community/internal/transport/web/v1/auth"
	"github.com/EgorLis/eng-community/internal/transport/web/v1/health"
	"github.com/EgorLis/eng-community/internal/transport/web/v1/media"
	"github.com/EgorLis/eng-community/internal/transport/web/v1/post"
	"github.com/EgorLis/eng-community/internal/transport/web/v1/vote"
)

const (
	jsonBodyLimit  = 1 << 20  // 1MB
	mediaBodyLimit = 64 << 20 // 64MB
)

func sub(l *log.Logger, name string) *log.Logger {
	return log.New(l.Writer(), l.Prefix()+"["+name+"] ", l.Flags())
}

func NewRouter(d Deps, logger *log.Logger) http.Handler {
	authLog := sub(logger, "auth")

	hh := &health.Handler{Log: sub(logger, "health"), DB: d.Repos.Users, Cache: d.Cache, Storage: d.Storage}
	login := &auth.HandlerLogin{Log: authLog, Users: d.Repos.Users, Hasher: d.Auth.Hasher, Tokens: d.Auth.Tokens}
	register := &auth.HandlerRegister{Log: authLog, Users: d.Repos.Users, Hasher: d.Auth.Hasher, Tokens: d.Auth.Tokens}
	refresh := &auth.HandlerRefresh{Log: authLog, Users: d.Repos.Users, Tokens: d.Auth.Tokens, Blacklist: d.Auth.Blacklist}
	logout := &auth.HandlerLogout{Log: authLog, Tokens: d.Auth.Tokens, Blacklist: d.Auth.Blacklist}
	me := &auth.HandlerMe{Log: authLog, Users: d.Repos.Users}
	vh := &vote.Handler{Log: sub(logger, "votes"), Votes: d.Repos.Votes}
	ph := &post.Handler{Log: sub(logger, "posts"), Posts: d.Repos.Posts}
	mh := &media.Handler{Log: sub(logger, "media"), Storage: d.Storage}

	authn := mw.AuthDeps{Tokens: d.Auth.Tokens}
	required := func(h http.HandlerFunc) http.Handler { return mw.RequireAuth(authn, h) }
	optional := func(h http.HandlerFunc) http.Handler { return mw.OptionalAuth(authn, h) }

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /v1/healthz", hh.Liveness)
	mux.HandleFunc("GET /v1/readyz", hh.Readiness)

	// auth
	mux.HandleFunc("POST /v1/auth/register", mw.LimitBody(jsonBodyLimit, register.Register))
	mux.HandleFunc("POST /v1/auth/login", mw.LimitBody(jsonBodyLimit, login.Login))
	mux.HandleFunc("POST /v1/auth/token/refresh", mw.LimitBody(jsonBodyLimit, refresh.Refresh))
	mux.HandleFunc("POST /v1/auth/logout", mw.LimitBody(jsonBodyLimit, logout.Logout))
	mux.Handle("GET /v1/auth/me", required(me.Me))

	// votes
	mux.Handle("POST /v1/votes", required(mw.LimitBody(jsonBodyLimit, vh.Cast)))
	mux.Handle("DELETE /v1/votes/{type}/{id}", required(vh.Remove))
	mux.Handle("GET /v1/votes/stats/{type}/{id}", optional(vh.Stats))

	// content
	mux.Handle("GET /v1/posts/{id}", optional(ph.GetOne))
	mux.Handle("GET /v1/comments", optional(ph.Comments))

	// media: без хранилища маршрутов нет
	if d.Storage != nil {
		mux.Handle("POST /v1/media", required(mw.LimitBody(mediaBodyLimit, mh.Upload)))
		mux.Handle("DELETE /v1/media", required(mh.Delete))
	}

	// swagger
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// 🔗 middleware
	return mw.WithRequestID(mw.Logging(logger)(mux))
}
