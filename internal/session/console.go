package session

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompt is printed after every processed event.
const Prompt = ">> "

// LineResult is the outcome of one console read.
type LineResult struct {
	Line string
	Err  error
}

// Console is the interactive surface: line reads from in, prompt and
// messages to out. Writes are serialized.
type Console struct {
	in *bufio.Reader

	mu  sync.Mutex
	out io.Writer
}

// NewConsole reads lines from in and writes to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// ReadLine starts one read task and returns the channel its result arrives
// on. At most one read task may be outstanding.
func (c *Console) ReadLine() <-chan LineResult {
	ch := make(chan LineResult, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil
		}
		ch <- LineResult{Line: strings.TrimRight(line, "\r\n"), Err: err}
	}()
	return ch
}

// Prompt prints the input prompt.
func (c *Console) Prompt() { c.write(Prompt) }

// Println prints a line of text.
func (c *Console) Println(a ...any) { c.write(fmt.Sprintln(a...)) }

// Printf prints formatted text.
func (c *Console) Printf(format string, a ...any) { c.write(fmt.Sprintf(format, a...)) }

// Display prints v using its default textual representation.
func (c *Console) Display(v fmt.Stringer) { c.write(v.String() + "\n") }

// Ask prints question and reads one trimmed line.
func (c *Console) Ask(question string) (string, error) {
	c.write(question)
	res := <-c.ReadLine()
	if res.Err != nil {
		return "", res.Err
	}
	return strings.TrimSpace(res.Line), nil
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}
