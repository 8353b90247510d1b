// Package client — фасад приложения: сессия + общий кеш + оптимистичные мутации.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/EgorLis/eng-community/internal/api"
	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/optimistic"
	"github.com/EgorLis/eng-community/internal/querycache"
	"github.com/EgorLis/eng-community/internal/session"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	StaleAfter time.Duration
	HTTP       *http.Client
	// OnSessionExpired — что делать, когда сессию восстановить нельзя (перейти к login)
	OnSessionExpired func()
}

type App struct {
	log     *log.Logger
	creds   domain.CredentialStore
	cache   *querycache.Store
	session *session.Client
	api     *api.Client
	// anon — login/register без bearer и без обработки истечения сессии
	anon  *api.Client
	coord *optimistic.Coordinator
}

func New(opts Options, creds domain.CredentialStore, logger *log.Logger) *App {
	sessionLog := log.New(logger.Writer(), logger.Prefix()+"[session] ", logger.Flags())
	cacheLog := log.New(logger.Writer(), logger.Prefix()+"[cache] ", logger.Flags())
	optLog := log.New(logger.Writer(), logger.Prefix()+"[optimistic] ", logger.Flags())

	cache := querycache.New(querycache.WithStaleAfter(opts.StaleAfter), querycache.WithLogger(cacheLog))
	sc := session.New(session.Config{
		BaseURL:          opts.BaseURL,
		Timeout:          opts.Timeout,
		HTTP:             opts.HTTP,
		OnSessionExpired: opts.OnSessionExpired,
	}, creds, sessionLog)

	return &App{
		log:     logger,
		creds:   creds,
		cache:   cache,
		session: sc,
		api:     api.New(opts.BaseURL, sc),
		anon:    api.New(opts.BaseURL, sc.Anonymous()),
		coord:   optimistic.New(cache, optLog),
	}
}

// Cache — общий кеш, для чтения состояния снаружи
func (a *App) Cache() *querycache.Store { return a.cache }

// Login сохраняет пару и кладёт профиль в кеш
func (a *App) Login(ctx context.Context, email, password string) (domain.User, error) {
	res, err := a.anon.Login(ctx, email, password)
	if err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	if err := a.startSession(ctx, res); err != nil {
		return domain.User{}, err
	}
	a.log.Printf("logged in as %s", res.User.Email)
	return res.User, nil
}

func (a *App) Register(ctx context.Context, req api.RegisterRequest) (domain.User, error) {
	res, err := a.anon.Register(ctx, req)
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	if err := a.startSession(ctx, res); err != nil {
		return domain.User{}, err
	}
	a.log.Printf("registered %s", res.User.Email)
	return res.User, nil
}

func (a *App) startSession(ctx context.Context, res api.AuthResponse) error {
	creds := res.Credentials()
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return fmt.Errorf("%w: auth response without tokens", domain.ErrUnexpected)
	}
	if err := a.creds.Save(ctx, creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	if b, err := json.Marshal(res.User); err == nil {
		a.cache.Set(domain.CacheKeyProfile(), b)
	}
	return nil
}

// Logout: сервер — по возможности, локальное состояние очищается всегда
func (a *App) Logout(ctx context.Context) error {
	creds, err := a.creds.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	var callErr error
	if creds.HasRefresh() {
		callErr = a.api.Logout(ctx, creds.RefreshToken)
		if callErr != nil {
			a.log.Printf("logout call failed: %v", callErr)
		}
	}
	if err := a.creds.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	a.cache.Clear()
	if callErr != nil {
		return fmt.Errorf("logout: %w", callErr)
	}
	return nil
}

// Me — профиль текущего пользователя (кешируется)
func (a *App) Me(ctx context.Context) (domain.User, error) {
	raw, err := a.cache.Fetch(ctx, domain.CacheKeyProfile(), a.api.MeRaw)
	if err != nil {
		return domain.User{}, fmt.Errorf("me: %w", err)
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return domain.User{}, fmt.Errorf("decode profile: %w", err)
	}
	return u, nil
}

// Post — пост по id как JSON (кешируется под post:{id})
func (a *App) Post(ctx context.Context, id string) (json.RawMessage, error) {
	return a.cache.Fetch(ctx, domain.CacheKeyPost(id), func(ctx context.Context) ([]byte, error) {
		return a.api.Post(ctx, id)
	})
}

func (a *App) Comments(ctx context.Context, postID string, p domain.ListParams) (json.RawMessage, error) {
	return a.cache.Fetch(ctx, domain.CacheKeyComments(postID, p.Key()), func(ctx context.Context) ([]byte, error) {
		return a.api.Comments(ctx, postID, p)
	})
}

// Vote — оптимистичный голос: счётчик меняется сразу, откатывается при ошибке сервера
func (a *App) Vote(ctx context.Context, req domain.VoteRequest) (domain.VoteCounts, error) {
	if err := req.Validate(); err != nil {
		return domain.VoteCounts{}, err
	}
	return optimistic.Mutate[domain.VoteRequest, domain.VoteCounts](ctx, a.coord, optimistic.VoteMutation{API: a.api}, req)
}

// RemoveVote — без оптимистики: семейство цели помечается устаревшим
func (a *App) RemoveVote(ctx context.Context, t domain.VoteTarget) error {
	err := a.api.RemoveVote(ctx, t)
	a.cache.Invalidate(domain.CacheFamilyOf(domain.CacheKeyVoteTarget(t)))
	return err
}

func (a *App) VoteStats(ctx context.Context, t domain.VoteTarget) (domain.VoteCounts, error) {
	return a.api.VoteStats(ctx, t)
}
