package web

import (
	"strconv"
	"strings"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

var phaseLabels = map[string]string{
	"lobby":          "Waiting for players",
	"word_selection": "Choosing a word",
	"drawing":        "Drawing",
	"round_end":      "Round over",
	"game_over":      "Game over",
}

func phaseLabel(phase string) string {
	if label, ok := phaseLabels[phase]; ok {
		return label
	}
	return strings.ReplaceAll(phase, "_", " ")
}

// spacedHint puts a space between hint characters so blanks stay readable.
func spacedHint(hint string) string {
	return strings.Join(strings.Split(hint, ""), " ")
}
