package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"personabot/internal/persona"
	"personabot/internal/types"
)

// Console is the line-oriented terminal. It reads operator lines and
// prints styled notices, replies and errors. It satisfies the voice
// session's Prompter and Printer.
type Console struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
	ctx context.Context

	readOnce sync.Once
	lines    chan lineResult

	styles   Styles
	renderer *Renderer
	persona  persona.Persona
}

// NewConsole creates a console over in and out.
func NewConsole(in io.Reader, out io.Writer, p persona.Persona, styles Styles, renderer *Renderer) *Console {
	if renderer == nil {
		renderer = NewRenderer(0, true)
	}
	return &Console{
		in:       bufio.NewReader(in),
		out:      out,
		styles:   styles,
		renderer: renderer,
		persona:  p,
	}
}

// Styles returns the console styles.
func (c *Console) Styles() Styles { return c.styles }

// Out returns the output writer. Progress messages from the agent are
// written here.
func (c *Console) Out() io.Writer { return c.out }

type lineResult struct {
	line string
	err  error
}

// BindContext makes pending and future reads return ctx's error once ctx
// is done, so an interrupt is not stuck behind a blocking read.
func (c *Console) BindContext(ctx context.Context) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()
}

// readLoop feeds lines to ReadLine until the input ends.
func (c *Console) readLoop() {
	defer close(c.lines)
	for {
		line, err := c.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && line != "" {
				c.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
			}
			if !errors.Is(err, io.EOF) {
				c.lines <- lineResult{err: err}
			}
			return
		}
		c.lines <- lineResult{line: strings.TrimRight(line, "\r\n")}
	}
}

// ReadLine shows prompt and returns the next line without its newline.
// A final unterminated line is returned before io.EOF.
func (c *Console) ReadLine(prompt string) (string, error) {
	c.readOnce.Do(func() {
		c.lines = make(chan lineResult)
		go c.readLoop()
	})

	c.mu.Lock()
	ctx := c.ctx
	if prompt != "" {
		fmt.Fprint(c.out, c.styles.Prompt.Render(prompt))
	}
	c.mu.Unlock()

	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	select {
	case r, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	case <-done:
		c.Println("")
		return "", ctx.Err()
	}
}

// Println writes a raw line.
func (c *Console) Println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// Notice writes a status line.
func (c *Console) Notice(format string, args ...any) {
	c.Println(fmt.Sprintf(format, args...))
}

// Success writes a green status line.
func (c *Console) Success(format string, args ...any) {
	c.Println(c.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Warn writes a yellow status line.
func (c *Console) Warn(format string, args ...any) {
	c.Println(c.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Reply writes a persona reply, rendering markdown.
func (c *Console) Reply(text string) {
	c.Println("\n" + c.styles.Speaker.Render(FirstName(c.persona)+":"))
	c.Println(c.renderer.Render(text) + "\n")
}

// Info writes the help or about screen.
func (c *Console) Info(kind types.InfoKind) {
	switch kind {
	case types.InfoHelp:
		c.Println(Help(c.styles, c.persona))
	case types.InfoAbout:
		c.Println(About(c.styles, c.persona))
	}
}

// Error writes a failure line.
func (c *Console) Error(err error) {
	if err == nil {
		return
	}
	c.Println(c.styles.Error.Render("❌ " + err.Error()))
}
