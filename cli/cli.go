package cli

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

var (
	ChatCliHistFileEnv     = "CHATCLI_HISTFILE"
	ChatCliHistFileDefault = ".chatcli_history"
)

// Options configures one client session.
type Options struct {
	Host string
	Port int

	// Raw forces unformatted output; it defaults to true when stdout is
	// not a tty.
	Raw bool
}

// Client is an interactive chat session: a REPL that sends typed lines
// to the server and prints whatever the server broadcasts back.
type Client struct {
	opts Options
	conn net.Conn
	line *liner.State
	raw  bool
}

func NewClient(opts Options) *Client {
	raw := opts.Raw || !isatty.IsTerminal(os.Stdout.Fd())
	return &Client{opts: opts, raw: raw}
}

// Run connects and blocks until the user quits or the server goes away.
func (c *Client) Run() error {
	addr := net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	c.conn = conn
	defer conn.Close()

	if !c.raw {
		fmt.Printf("connected to %s\n", addr)
	}

	c.line = liner.NewLiner()
	c.line.SetCtrlCAborts(true)
	defer c.line.Close()
	c.loadHistory()
	defer c.saveHistory()

	// Broadcasts arrive while the prompt is open; print them as they
	// come and let liner redraw on the next keystroke.
	done := make(chan error, 1)
	go c.printBroadcasts(done)

	for {
		select {
		case err := <-done:
			return err
		default:
		}

		input, err := c.line.Prompt(c.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if input == "" {
			continue
		}
		c.line.AppendHistory(input)

		if _, err := conn.Write([]byte(input + "\n")); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
}

func (c *Client) prompt() string {
	if c.raw {
		return ""
	}
	return "chat> "
}

// printBroadcasts copies server payloads to stdout until the connection
// closes.
func (c *Client) printBroadcasts(done chan<- error) {
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			os.Stdout.Write(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !c.raw {
					fmt.Println("server closed the connection")
				}
				done <- nil
			} else {
				done <- err
			}
			return
		}
	}
}

func (c *Client) historyPath() string {
	if path := os.Getenv(ChatCliHistFileEnv); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ChatCliHistFileDefault)
}

func (c *Client) loadHistory() {
	path := c.historyPath()
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

func (c *Client) saveHistory() {
	path := c.historyPath()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		c.line.WriteHistory(f)
		f.Close()
	}
}
