// Command ghost-mcp-logs renders ghost-mcp's JSON log stream as a readable timeline.
//
//	ghost-mcp 2> >(ghost-mcp-logs)
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

type entry map[string]any

func (e entry) str(key string) string {
	v, ok := e[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// duration reads a slog JSON duration, which is encoded in nanoseconds.
func (e entry) duration(key string) time.Duration {
	n, ok := e[key].(float64)
	if !ok {
		return 0
	}
	return time.Duration(n).Round(time.Millisecond)
}

type printer struct {
	w       io.Writer
	section string
	all     bool
}

func main() {
	var all bool
	flags := pflag.NewFlagSet("ghost-mcp-logs", pflag.ContinueOnError)
	flags.BoolVar(&all, "all", false, "print every record, not just tool calls, failures and lifecycle events")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if err := beautify(os.Stdin, os.Stdout, all); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func beautify(r io.Reader, w io.Writer, all bool) error {
	p := &printer{w: w, all: all}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()

		start := strings.Index(line, "{")
		if start == -1 {
			fmt.Fprintln(w, line)
			continue
		}

		var e entry
		if err := json.Unmarshal([]byte(line[start:]), &e); err != nil {
			fmt.Fprintln(w, line)
			continue
		}
		p.print(e)
	}
	return scanner.Err()
}

func (p *printer) print(e entry) {
	msg := e.str("msg")

	switch msg {
	case "starting Ghost MCP server":
		p.header("SETUP")
		p.step(true, "Ghost "+e.str("ghost_url"), "mode="+e.str("mode")+" version="+e.str("version"))
	case "MCP server starting":
		p.header("SETUP")
		p.step(true, "MCP server listening on stdio", e.str("tools")+" tools")
	case "tool_audit":
		p.header("TOOLS")
		details := e.duration("duration").String()
		if id := e.str("request_id"); id != "" {
			details += " " + id
		}
		if ok, _ := e["success"].(bool); ok {
			p.step(true, e.str("tool"), details)
			return
		}
		p.step(false, e.str("tool"), details)
		p.detail(e.str("error_category") + " " + e.str("error"))
	case "attempt failed, retrying":
		p.warn(fmt.Sprintf("retry %s/%s after %s: %s",
			e.str("attempt"), e.str("max_retries"), e.duration("delay"), e.str("error")))
	case "circuit breaker state changed":
		p.warn(fmt.Sprintf("%s circuit breaker %s -> %s", e.str("surface"), e.str("from"), e.str("to")))
	case "received shutdown signal", "MCP client disconnected", "shutdown complete":
		p.header("SHUTDOWN")
		p.step(true, msg, "")
	default:
		switch level := e.str("level"); {
		case level == "ERROR":
			p.step(false, msg, e.str("error"))
		case level == "WARN":
			p.warn(msg)
		case p.all:
			fmt.Fprintf(p.w, "  %s %s\n", detailStyle.Render(level), msg)
		}
	}
}

func (p *printer) header(section string) {
	if p.section == section {
		return
	}
	p.section = section
	rule := strings.Repeat("─", 10)
	fmt.Fprintf(p.w, "\n%s %s %s\n", detailStyle.Render(rule), headerStyle.Render(section), detailStyle.Render(rule))
}

func (p *printer) step(ok bool, message, details string) {
	symbol := passStyle.Render("✓")
	if !ok {
		symbol = failStyle.Render("✗")
	}
	if details == "" {
		fmt.Fprintf(p.w, "  %s %s\n", symbol, message)
		return
	}
	fmt.Fprintf(p.w, "  %s %s %s\n", symbol, message, detailStyle.Render("("+details+")"))
}

func (p *printer) warn(message string) {
	fmt.Fprintf(p.w, "  %s %s\n", warnStyle.Render("!"), message)
}

func (p *printer) detail(message string) {
	fmt.Fprintf(p.w, "    %s\n", detailStyle.Render(strings.TrimSpace(message)))
}
