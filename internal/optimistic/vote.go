package optimistic

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/EgorLis/eng-community/internal/domain"
)

// Voter — то, что умеет отправить голос (api.Client)
type Voter interface {
	Vote(ctx context.Context, req domain.VoteRequest) (domain.VoteCounts, error)
}

// VoteMutation — оптимистичный голос за пост или комментарий
type VoteMutation struct {
	API Voter
}

var _ Mutation[domain.VoteRequest, domain.VoteCounts] = VoteMutation{}

func (VoteMutation) Key(in domain.VoteRequest) string {
	return domain.CacheKeyVoteTarget(in.Target())
}

// Apply увеличивает upvotes или downvotes. Прочие поля сохраняются,
// отсутствующий счётчик считается нулём, не-объект возвращается как есть.
func (VoteMutation) Apply(prev []byte, in domain.VoteRequest) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(prev, &obj); err != nil || obj == nil {
		return prev, nil
	}
	field := "downvotes"
	if in.VoteType == domain.VoteUp {
		field = "upvotes"
	}
	n := counter(obj[field])
	obj[field] = json.RawMessage(strconv.FormatInt(n+1, 10))
	return json.Marshal(obj)
}

func (m VoteMutation) Do(ctx context.Context, in domain.VoteRequest) (domain.VoteCounts, error) {
	return m.API.Vote(ctx, in)
}

// Confirm переносит счётчики сервера в закешированный объект
func (VoteMutation) Confirm(cur []byte, out domain.VoteCounts) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(cur, &obj); err != nil || obj == nil {
		return nil
	}
	obj["upvotes"] = json.RawMessage(strconv.FormatInt(out.Upvotes, 10))
	obj["downvotes"] = json.RawMessage(strconv.FormatInt(out.Downvotes, 10))
	if out.UserVote != nil {
		obj["userVote"] = json.RawMessage(strconv.Quote(string(*out.UserVote)))
	} else {
		delete(obj, "userVote")
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	return b
}

// Invalidates — всё семейство цели (все посты или все комментарии)
func (VoteMutation) Invalidates(in domain.VoteRequest) []string {
	if in.TargetType == domain.TargetComment {
		return []string{domain.CacheFamilyComment, domain.CacheFamilyComments}
	}
	return []string{domain.CacheFamilyPost}
}

func counter(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return n
}
