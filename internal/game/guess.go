package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"termibbl/internal/protocol"
)

var folder = cases.Fold()

// NormalizeGuess trims and collapses whitespace, folds case and strips
// diacritics so "  Crème  BRULEE" matches "creme brulee".
func NormalizeGuess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	return folder.String(stripped)
}

// closeGuess reports a near miss: one edit away from a word longer than
// three letters.
func closeGuess(guess, word string) bool {
	w := []rune(word)
	if len(w) <= 3 {
		return false
	}
	return editDistance([]rune(guess), w) == 1
}

func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// SubmitGuess handles a chat line. During drawing it is checked against the
// word; players who can no longer guess only talk among themselves.
func (s *Session) SubmitGuess(player string, text string) error {
	p, ok := s.players.get(player)
	if !ok {
		return ErrUnknownPlayer
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	line := protocol.ChatLine{SenderID: p.ID, Name: p.Name, Text: text, At: s.opts.Now()}
	event := protocol.ChatEvent{SenderID: p.ID, Name: p.Name, Text: text}

	if s.phase != PhaseDrawing {
		s.chat.push(chatEntry{line: line, public: true})
		s.broadcast(event)
		return nil
	}
	if player == s.round.Drawer || s.round.solved(player) {
		s.chat.push(chatEntry{line: line})
		s.emit(s.nonGuessers(), event)
		return nil
	}

	guess := NormalizeGuess(text)
	word := NormalizeGuess(s.round.Word)
	switch {
	case guess == word:
		s.correctGuess(p)
	case closeGuess(guess, word):
		s.sendTo(player, protocol.Notice{Code: "close", Text: text + " is close!"})
	default:
		s.chat.push(chatEntry{line: line, public: true})
		s.broadcast(event)
	}
	return nil
}

func (s *Session) correctGuess(p *Player) {
	elapsed := s.elapsed()
	fraction := 0.0
	if s.round.Duration > 0 {
		fraction = float64(elapsed) / float64(s.round.Duration)
	}
	points := s.opts.Scoring.Award(len(s.round.Correct)+1, fraction)
	p.Score += points
	s.round.Correct = append(s.round.Correct, Guess{PlayerID: p.ID, Points: points, Elapsed: elapsed})
	s.chat.push(chatEntry{
		line:   protocol.ChatLine{SenderID: p.ID, Name: p.Name, At: s.opts.Now(), CorrectGuess: true},
		public: true,
	})
	s.broadcast(protocol.CorrectGuess{SenderID: p.ID, Name: p.Name, Points: points})
	s.broadcast(protocol.ScoreUpdate{Scores: s.players.infos()})
	s.log.Info().Str("player_id", p.ID).Str("name", p.Name).Int("points", points).Msg("correct guess")
	s.checkAllGuessed()
}

// nonGuessers are the connected drawer and players who already have the word.
func (s *Session) nonGuessers() []string {
	var out []string
	for _, id := range s.players.connected() {
		if id == s.round.Drawer || s.round.solved(id) {
			out = append(out, id)
		}
	}
	return out
}

// guessers are the connected players still trying to find the word.
func (s *Session) guessers() []string {
	var out []string
	for _, id := range s.players.connected() {
		if id != s.round.Drawer && !s.round.solved(id) {
			out = append(out, id)
		}
	}
	return out
}
