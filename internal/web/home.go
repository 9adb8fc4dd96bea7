package web

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Status renders the server status page.
func Status(view StatusView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <meta http-equiv="refresh" content="5"/>
    <title>termibbl</title>
  </head>
  <body>
    <main class="shell">
      <header class="hero">
        <h1>termibbl</h1>
        <p>Connect with <code>termibbl client --address &lt;host&gt;:`)
		b.WriteString(itoa(view.Port))
		b.WriteString(` &lt;name&gt;</code></p>
      </header>
      <section class="panel">
        <h2>`)
		b.WriteString(templ.EscapeString(phaseLabel(view.Phase)))
		b.WriteString(`</h2>
        <p>Round `)
		b.WriteString(itoa(view.Round))
		b.WriteString(` on a `)
		b.WriteString(itoa(view.Width))
		b.WriteString(`x`)
		b.WriteString(itoa(view.Height))
		b.WriteString(` canvas</p>`)
		if view.Drawer != "" {
			b.WriteString(`
        <p class="drawer">`)
			b.WriteString(templ.EscapeString(view.Drawer))
			b.WriteString(` is drawing</p>`)
		}
		if view.Hint != "" {
			b.WriteString(`
        <p class="hint"><code>`)
			b.WriteString(templ.EscapeString(spacedHint(view.Hint)))
			b.WriteString(`</code> `)
			b.WriteString(itoa(view.SecondsLeft))
			b.WriteString(`s left</p>`)
		}
		b.WriteString(`
      </section>
      <section class="panel">
        <h2>Players</h2>`)
		if len(view.Players) == 0 {
			b.WriteString(`
        <p class="empty">Nobody has joined yet.</p>`)
		} else {
			b.WriteString(`
        <ol class="scores">`)
			for _, p := range view.Players {
				class := "online"
				if !p.Connected {
					class = "offline"
				}
				b.WriteString(`
          <li class="`)
				b.WriteString(class)
				b.WriteString(`">`)
				b.WriteString(templ.EscapeString(p.Name))
				b.WriteString(` <span>`)
				b.WriteString(itoa(p.Score))
				b.WriteString(`</span></li>`)
			}
			b.WriteString(`
        </ol>`)
		}
		b.WriteString(`
      </section>
    </main>
  </body>
</html>
`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
