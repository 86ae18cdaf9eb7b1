package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// Console is a line-oriented transport acting as a single user. Lines
// starting with "/" are commands, "photo <ref>" is a photo and anything
// else is text. Photo refs are local file paths, so Fetch opens them.
type Console struct {
	in     io.Reader
	out    io.Writer
	uid    string
	prompt bool

	mu sync.Mutex
}

// NewConsole returns a console transport speaking as uid. The "> " prompt is
// printed only when in is an interactive terminal.
func NewConsole(in io.Reader, out io.Writer, uid string) *Console {
	c := &Console{in: in, out: out, uid: uid}
	if f, ok := in.(*os.File); ok {
		c.prompt = isTerminal(int(f.Fd()))
	}
	return c
}

// Run reads lines until EOF, "exit" or ctx cancellation. Events are handled
// synchronously so replies are printed before the next prompt.
func (c *Console) Run(ctx context.Context, h Handler) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		c.printPrompt()
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				c.println("Bye!")
				return nil
			}
			h.Handle(ctx, c.parse(line))
		}
	}
}

func (c *Console) parse(line string) Event {
	if name, args, ok := ParseCommand(line); ok {
		return Command(c.uid, name, args...)
	}
	if ref, ok := strings.CutPrefix(line, "photo "); ok {
		return PhotoMessage(c.uid, strings.TrimSpace(ref))
	}
	return TextMessage(c.uid, line)
}

// Send prints the reply. Replies to other users are prefixed with their uid.
func (c *Console) Send(_ context.Context, uid, text string, keyboard []string) error {
	if uid != c.uid {
		text = fmt.Sprintf("[to %s] %s", uid, text)
	}
	c.println(text)
	if len(keyboard) > 0 {
		c.println("[ " + strings.Join(keyboard, " | ") + " ]")
	}
	return nil
}

func (c *Console) Fetch(_ context.Context, fileRef string) (io.ReadCloser, string, error) {
	f, err := os.Open(fileRef)
	if err != nil {
		return nil, "", fmt.Errorf("open photo: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(fileRef))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}

func (c *Console) printPrompt() {
	if !c.prompt {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, "> ")
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
