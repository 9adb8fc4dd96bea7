package game

import "termibbl/internal/protocol"

type chatEntry struct {
	line   protocol.ChatLine
	public bool
}

// chatLog is a fixed-size ring of the most recent chat lines.
type chatLog struct {
	buf   []chatEntry
	start int
	n     int
}

func newChatLog(size int) chatLog {
	if size < 1 {
		size = 1
	}
	return chatLog{buf: make([]chatEntry, size)}
}

func (c *chatLog) push(e chatEntry) {
	if c.n < len(c.buf) {
		c.buf[(c.start+c.n)%len(c.buf)] = e
		c.n++
		return
	}
	c.buf[c.start] = e
	c.start = (c.start + 1) % len(c.buf)
}

// public returns the lines every player was allowed to see, oldest first.
func (c *chatLog) public() []protocol.ChatLine {
	out := make([]protocol.ChatLine, 0, c.n)
	for i := 0; i < c.n; i++ {
		if e := c.buf[(c.start+i)%len(c.buf)]; e.public {
			out = append(out, e.line)
		}
	}
	return out
}

func (c *chatLog) len() int { return c.n }
