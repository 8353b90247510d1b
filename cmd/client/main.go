package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/EgorLis/eng-community/internal/api"
	"github.com/EgorLis/eng-community/internal/client"
	"github.com/EgorLis/eng-community/internal/config"
	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/infra/credstore/file"
)

func main() {
	cmd := flag.String("cmd", "me", "Command: login|register|logout|me|post|comments|vote|unvote|stats")
	email := flag.String("email", "", "Email (login/register)")
	pass := flag.String("password", "", "Password (login/register)")
	name := flag.String("name", "", "Display name (register)")
	role := flag.String("role", "", "Role: learner|teacher|moderator|admin (register)")
	bio := flag.String("bio", "", "Profile bio (register)")
	id := flag.String("id", "", "Post or comment id")
	target := flag.String("type", string(domain.TargetPost), "Vote target: post|comment")
	vote := flag.String("vote", string(domain.VoteUp), "Vote: upvote|downvote")
	page := flag.Int("page", 1, "Comments page")
	limit := flag.Int("limit", domain.DefaultLimit, "Comments page size")
	verbose := flag.Bool("v", false, "Log session and cache activity to stderr")
	flag.Parse()

	cfg, err := config.LoadClientFromEnv()
	if err != nil {
		fail(err)
	}

	logger := log.New(io.Discard, "[client] ", log.LstdFlags)
	if *verbose {
		logger.SetOutput(os.Stderr)
		logger.Printf("configuration: %s", cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	creds := file.New(cfg.CredentialsFile, logger)
	app := client.New(client.Options{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.APITimeout,
		StaleAfter: cfg.CacheStaleAfter,
		OnSessionExpired: func() {
			fmt.Fprintln(os.Stderr, "session expired, please login again: -cmd login -email ... -password ...")
		},
	}, creds, logger)

	vt := domain.VoteTarget{TargetID: *id, TargetType: domain.TargetType(*target)}

	switch *cmd {
	case "login":
		u, err := app.Login(ctx, *email, *pass)
		check(err)
		fmt.Printf("logged in as %s (%s)\n", u.Email, u.Role)
	case "register":
		u, err := app.Register(ctx, api.RegisterRequest{
			Email:    *email,
			Password: *pass,
			Name:     *name,
			Role:     domain.Role(*role),
			Bio:      *bio,
		})
		check(err)
		fmt.Printf("registered %s (%s)\n", u.Email, u.Role)
	case "logout":
		check(app.Logout(ctx))
		fmt.Println("logged out")
	case "me":
		u, err := app.Me(ctx)
		check(err)
		printJSON(u)
	case "post":
		requireID(*id)
		raw, err := app.Post(ctx, *id)
		check(err)
		printJSON(raw)
	case "comments":
		requireID(*id)
		raw, err := app.Comments(ctx, *id, domain.ListParams{Page: *page, Limit: *limit})
		check(err)
		printJSON(raw)
	case "vote":
		requireID(*id)
		counts, err := app.Vote(ctx, domain.VoteRequest{TargetID: *id, TargetType: vt.TargetType, VoteType: domain.VoteType(*vote)})
		check(err)
		printJSON(counts)
	case "unvote":
		requireID(*id)
		check(app.RemoveVote(ctx, vt))
		fmt.Println("vote removed")
	case "stats":
		requireID(*id)
		counts, err := app.VoteStats(ctx, vt)
		check(err)
		printJSON(counts)
	default:
		fail(fmt.Errorf("unknown command %q", *cmd))
	}
}

func requireID(id string) {
	if id == "" {
		fail(errors.New("-id required"))
	}
}

func check(err error) {
	if err == nil {
		return
	}
	// подсказка уже напечатана хуком OnSessionExpired
	if errors.Is(err, domain.ErrSessionExpired) {
		os.Exit(2)
	}
	fail(err)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func printJSON(v any) {
	var out []byte
	var err error
	if raw, ok := v.(json.RawMessage); ok {
		var tmp any
		if err = json.Unmarshal(raw, &tmp); err == nil {
			out, err = json.MarshalIndent(tmp, "", "  ")
		}
	} else {
		out, err = json.MarshalIndent(v, "", "  ")
	}
	check(err)
	fmt.Println(string(out))
}
