package scoring

import "math"

// Policy turns guess order and elapsed time into points. Half of the base is
// spread over the remaining time, the other half shrinks with guess order.
type Policy struct {
	BasePoints   int
	DrawerPoints int
}

func Default() Policy {
	return Policy{BasePoints: 500, DrawerPoints: 50}
}

// Award returns the guesser's points. order starts at 1 for the first correct
// guess of a round; elapsed is the fraction of the round already spent.
// Points are whole numbers, so two guesses less than 2/BasePoints of the
// round apart can score the same.
func (p Policy) Award(order int, elapsed float64) int {
	if order < 1 {
		order = 1
	}
	elapsed = clamp(elapsed, 0, 1)
	base := float64(p.BasePoints)
	points := base*(1-elapsed)*0.5 + base*0.5/float64(order)
	return max(1, int(math.Round(points)))
}

// DrawerAward pays the drawer per correct guesser; nobody guessing pays nothing.
func (p Policy) DrawerAward(correct int) int {
	if correct <= 0 {
		return 0
	}
	return p.DrawerPoints * correct
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(hi, math.Max(lo, v))
}
