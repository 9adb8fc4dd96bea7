package game

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"termibbl/internal/protocol"
)

type Player struct {
	ID        string
	Name      string
	Score     int
	Connected bool
	JoinedAt  time.Time
}

func (p *Player) info() protocol.PlayerInfo {
	return protocol.PlayerInfo{ID: p.ID, Name: p.Name, Score: p.Score, Connected: p.Connected}
}

// registry keeps players in join order.
type registry struct {
	byID  map[string]*Player
	order []string
}

func newRegistry() registry {
	return registry{byID: make(map[string]*Player)}
}

func (r *registry) add(p *Player) {
	r.byID[p.ID] = p
	r.order = append(r.order, p.ID)
}

func (r *registry) get(id string) (*Player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *registry) remove(id string) {
	delete(r.byID, id)
	r.order = slices.DeleteFunc(r.order, func(other string) bool { return other == id })
}

func (r *registry) byName(name string) (*Player, bool) {
	for _, id := range r.order {
		if p := r.byID[id]; strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

func (r *registry) connected() []string {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.byID[id].Connected {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *registry) isConnected(id string) bool {
	p, ok := r.byID[id]
	return ok && p.Connected
}

func (r *registry) infos() []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].info())
	}
	return out
}

// standings sorts by score, highest first, then by name.
func (r *registry) standings() []protocol.PlayerInfo {
	out := r.infos()
	slices.SortStableFunc(out, func(a, b protocol.PlayerInfo) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}
