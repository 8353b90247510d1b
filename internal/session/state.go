package session

import "net/http"

// State — состояние отдельного запроса:
// unsent → sent → {succeeded | failed(401) → refreshing → {retried → succeeded|failed | refresh_failed → session_expired} | failed}
type State string

const (
	StateUnsent         State = "unsent"
	StateSent           State = "sent"
	StateSucceeded      State = "succeeded"
	StateFailed         State = "failed"
	StateRefreshing     State = "refreshing"
	StateRetried        State = "retried"
	StateRefreshFailed  State = "refresh_failed"
	StateSessionExpired State = "session_expired"
)

// pending — запрос в полёте. retried одноразовый: повтор после refresh не больше одного раза.
type pending struct {
	req     *http.Request
	retried bool
	state   State
	trail   []State
}

func newPending(req *http.Request) *pending {
	return &pending{req: req, state: StateUnsent, trail: []State{StateUnsent}}
}

func (p *pending) to(s State) {
	p.state = s
	p.trail = append(p.trail, s)
}
