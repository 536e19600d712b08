// Package console is a stdin/stdout transport for local runs. A line
// starting with @ attaches image files: "@sleep1.png sleep2.png".
package console

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

	"github.com/chris/zeroism/internal/flow"
	"github.com/chris/zeroism/internal/llm"
)

// ConversationID is the single conversation the console carries.
const ConversationID = "console"

const prompt = "zeroism> "

type Handler interface {
	Handle(ctx context.Context, id string, in flow.Input) string
}

type Console struct {
	handler     Handler
	out         io.Writer
	interactive bool
	mu          sync.Mutex
}

// New writes replies to out. When interactive, a prompt is printed before
// each line is read.
func New(h Handler, out io.Writer, interactive bool) *Console {
	return &Console{handler: h, out: out, interactive: interactive}
}

// Send prints a message pushed by the scheduler.
func (c *Console) Send(_, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "\n%s\n", content)
	if err == nil && c.interactive {
		_, err = fmt.Fprint(c.out, prompt)
	}
	return err
}

// Run reads lines until EOF, "exit" or "quit", or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		errc <- scanner.Err()
		close(lines)
	}()

	c.printPrompt()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			line = strings.TrimSpace(line)
			if line == "exit" || line == "quit" {
				return nil
			}
			if line != "" {
				c.handle(ctx, line)
			}
			c.printPrompt()
		}
	}
}

func (c *Console) handle(ctx context.Context, line string) {
	in := flow.Input{Text: line}
	if paths, ok := strings.CutPrefix(line, "@"); ok {
		images, err := readImages(strings.Fields(paths))
		if err != nil {
			c.print(err.Error())
			return
		}
		in = flow.Input{Images: images}
	}
	if reply := c.handler.Handle(ctx, ConversationID, in); reply != "" {
		c.print(reply)
	}
}

func (c *Console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) printPrompt() {
	if !c.interactive {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, prompt)
}

func readImages(paths []string) ([]llm.Image, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("usage: @image.png [more.png ...]")
	}
	images := make([]llm.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if !strings.HasPrefix(mediaType, "image/") {
			return nil, fmt.Errorf("%s is not an image", p)
		}
		images = append(images, llm.Image{MediaType: mediaType, Data: data})
	}
	return images, nil
}
