package post

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/EgorLis/eng-community/internal/domain"
	"github.com/EgorLis/eng-community/internal/transport/web/logx"
	"github.com/EgorLis/eng-community/internal/transport/web/mw"
	v1 "github.com/EgorLis/eng-community/internal/transport/web/v1"
)

type Handler struct {
	Log   *log.Logger
	Posts domain.PostsRepo
}

// GetOne godoc
// @Summary     Get post by id
// @Description Пост со счётчиками голосов; userVote — для авторизованного пользователя.
// @Tags        posts
// @Produce     json
// @Param       id path string true "post id"
// @Success     200 {object} domain.Post
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/posts/{id} [get]
func (h *Handler) GetOne(w http.ResponseWriter, r *http.Request) {
	const op = "posts.getone"
	reqID := mw.RequestIDFromCtx(r.Context())

	id, err := parseID(r.PathValue("id"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad id", err)
		v1.WriteDomainError(w, r, err)
		return
	}

	viewer := domain.ViewerFromCtx(r.Context())

	p, err := h.Posts.PostByID(r.Context(), id, viewer)
	if err != nil {
		logx.Error(h.Log, reqID, op, "load failed", err, "post_id", id)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "post_id", id)
	v1.WriteOK(w, r, p)
}

// Comments godoc
// @Summary     Comments of a post
// @Tags        comments
// @Produce     json
// @Param       postId    query string true  "post id"
// @Param       page      query int    false "page, from 1"
// @Param       limit     query int    false "page size, max 100"
// @Param       sortBy    query string false "createdAt | upvotes | downvotes"
// @Param       sortOrder query string false "asc | desc"
// @Success     200 {object} domain.Page[domain.Comment]
// @Failure     400 {object} domain.APIEnvelope
// @Failure     404 {object} domain.APIEnvelope
// @Router      /v1/comments [get]
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	const op = "comments.list"
	reqID := mw.RequestIDFromCtx(r.Context())
	q := r.URL.Query()

	postID, err := parseID(q.Get("postId"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad postId", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	lp, err := parseListParams(q.Get("page"), q.Get("limit"))
	if err != nil {
		logx.Error(h.Log, reqID, op, "bad paging", err)
		v1.WriteDomainError(w, r, err)
		return
	}
	lp.SortBy = q.Get("sortBy")
	lp.SortOrder = q.Get("sortOrder")

	page, err := h.Posts.CommentsByPost(r.Context(), postID, lp)
	if err != nil {
		logx.Error(h.Log, reqID, op, "list failed", err, "post_id", postID)
		v1.WriteDomainError(w, r, err)
		return
	}

	logx.Info(h.Log, reqID, op, "ok", "post_id", postID, "n", len(page.Data), "total", page.Total)
	v1.WriteOK(w, r, page)
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: id %q", domain.ErrBadParams, s)
	}
	return id, nil
}

func parseListParams(page, limit string) (domain.ListParams, error) {
	var lp domain.ListParams
	var err error
	if page != "" {
		if lp.Page, err = strconv.Atoi(page); err != nil || lp.Page < 1 {
			return lp, fmt.Errorf("%w: page %q", domain.ErrBadParams, page)
		}
	}
	if limit != "" {
		if lp.Limit, err = strconv.Atoi(limit); err != nil || lp.Limit < 1 {
			return lp, fmt.Errorf("%w: limit %q", domain.ErrBadParams, limit)
		}
	}
	return lp, nil
}
