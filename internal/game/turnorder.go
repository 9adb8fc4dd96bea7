package game

import "slices"

// rotation hands out drawers one cycle at a time. A cycle is filled with the
// connected players in join order; players who disconnect before their turn
// are skipped and lose their slot unless they come back during the cycle.
type rotation struct {
	queue []string
	drawn map[string]bool
	cycle int
}

func newRotation() rotation {
	return rotation{drawn: make(map[string]bool)}
}

// next pops the next connected drawer. It reports false when the cycle is
// exhausted.
func (r *rotation) next(connected func(string) bool) (string, bool) {
	for len(r.queue) > 0 {
		id := r.queue[0]
		r.queue = r.queue[1:]
		if !connected(id) || r.drawn[id] {
			continue
		}
		r.drawn[id] = true
		return id, true
	}
	return "", false
}

func (r *rotation) startCycle(players []string) {
	r.cycle++
	r.queue = slices.Clone(players)
	clear(r.drawn)
}

func (r *rotation) inCycle() bool {
	return r.cycle > 0
}

// joined appends a new player to the running cycle.
func (r *rotation) joined(id string) {
	if !r.inCycle() || r.drawn[id] || slices.Contains(r.queue, id) {
		return
	}
	r.queue = append(r.queue, id)
}

// rejoined puts a returning player at the next slot if they have not drawn
// in this cycle yet. A player who already drew waits for the next cycle.
func (r *rotation) rejoined(id string) {
	if !r.inCycle() || r.drawn[id] {
		return
	}
	r.queue = slices.DeleteFunc(r.queue, func(other string) bool { return other == id })
	r.queue = slices.Insert(r.queue, 0, id)
}

func (r *rotation) remove(id string) {
	r.queue = slices.DeleteFunc(r.queue, func(other string) bool { return other == id })
	delete(r.drawn, id)
}

func (r *rotation) reset() {
	r.cycle = 0
	r.queue = nil
	clear(r.drawn)
}
