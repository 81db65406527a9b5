package workers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/wercia/zeeland-agents/pkg/domain"
)

type ChatService interface {
	Send(ctx context.Context, question string, responseMode domain.ResponseMode, image *domain.ImageData)
	Summarize(ctx context.Context)
}

type ScenarioService interface {
	All() []domain.Scenario
	Current() (domain.Scenario, bool)
	Select(id string)
	Add(ctx context.Context) domain.Scenario
	Delete(ctx context.Context, id string) error
	Rename(ctx context.Context, id, title string)
}

// console is a thin line-oriented driver around the chat and scenario
// services. It does no rendering beyond printing raw message content.
type console struct {
	in        io.Reader
	out       io.Writer
	chat      ChatService
	scenarios ScenarioService
	mode      domain.ResponseMode
}

func NewConsole(in io.Reader, out io.Writer, chat ChatService, scenarios ScenarioService) *console {
	return &console{
		in:        in,
		out:       out,
		chat:      chat,
		scenarios: scenarios,
		mode:      domain.ResponseModeVerified,
	}
}

func (c *console) Name() string { return "console" }

func (c *console) Start(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			c.handle(ctx, strings.TrimSpace(line))
		}
	}
}

func (c *console) handle(ctx context.Context, line string) {
	if line == "" {
		return
	}

	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "/list":
		for _, sc := range c.scenarios.All() {
			fmt.Fprintf(c.out, "%s\t%s\t(%d berichten)\n", sc.ID, sc.Title, len(sc.Chat))
		}
	case "/new":
		sc := c.scenarios.Add(ctx)
		fmt.Fprintf(c.out, "Nieuw scenario: %s (%s)\n", sc.Title, sc.ID)
	case "/switch":
		c.scenarios.Select(strings.TrimSpace(rest))
	case "/delete":
		if err := c.scenarios.Delete(ctx, strings.TrimSpace(rest)); err != nil {
			fmt.Fprintf(c.out, "Verwijderen mislukt: %v\n", err)
		}
	case "/rename":
		id, title, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if id != "" && strings.TrimSpace(title) != "" {
			c.scenarios.Rename(ctx, id, strings.TrimSpace(title))
		}
	case "/mode":
		c.mode = domain.ResponseMode(strings.TrimSpace(rest))
	case "/summary":
		c.chat.Summarize(ctx)
		c.printLastMessage()
	default:
		c.chat.Send(ctx, line, c.mode, nil)
		c.printLastMessage()
	}
}

func (c *console) printLastMessage() {
	sc, ok := c.scenarios.Current()
	if !ok || len(sc.Chat) == 0 {
		return
	}

	last := sc.Chat[len(sc.Chat)-1]
	if last.RawContent != "" {
		fmt.Fprintln(c.out, last.RawContent)
	} else {
		fmt.Fprintln(c.out, last.Content)
	}
	for _, src := range last.Sources {
		fmt.Fprintf(c.out, "- %s: %s\n", src.Label, src.URL)
	}
}
