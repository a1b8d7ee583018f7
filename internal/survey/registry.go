package survey

import "sync"

// Registry holds live sessions keyed by session id. Session values carry
// their own lock; the registry only guards the id map.
type Registry struct {
	sessions sync.Map
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Add(session *Session) {
	r.sessions.Store(session.ID(), session)
}

func (r *Registry) Get(id string) (*Session, bool) {
	stored, ok := r.sessions.Load(id)
	if !ok {
		return nil, false
	}
	session, ok := stored.(*Session)
	return session, ok
}

func (r *Registry) Remove(id string) {
	r.sessions.Delete(id)
}
