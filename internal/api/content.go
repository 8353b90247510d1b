package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/EgorLis/eng-community/internal/domain"
)

func (c *Client) Vote(ctx context.Context, req domain.VoteRequest) (domain.VoteCounts, error) {
	var out domain.VoteCounts
	err := c.doJSON(ctx, http.MethodPost, "/votes", nil, req, &out)
	return out, err
}

func (c *Client) RemoveVote(ctx context.Context, t domain.VoteTarget) error {
	_, err := c.do(ctx, http.MethodDelete, "/votes/"+string(t.TargetType)+"/"+url.PathEscape(t.TargetID), nil, nil)
	return err
}

func (c *Client) VoteStats(ctx context.Context, t domain.VoteTarget) (domain.VoteCounts, error) {
	var out domain.VoteCounts
	err := c.doJSON(ctx, http.MethodGet, "/votes/stats/"+string(t.TargetType)+"/"+url.PathEscape(t.TargetID), nil, nil, &out)
	return out, err
}

// Post — сырой JSON поста, кладётся в кеш как есть
func (c *Client) Post(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Comments(ctx context.Context, postID string, p domain.ListParams) ([]byte, error) {
	q := p.Values()
	q.Set("postId", postID)
	return c.do(ctx, http.MethodGet, "/comments", q, nil)
}
