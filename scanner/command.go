package scanner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type CommandKind int

const (
	CommandList CommandKind = iota
	CommandSend
	CommandClear
	CommandRemove
)

// Command is one operator instruction typed on the scanner console.
type Command struct {
	Kind CommandKind
	// Index is the 1-based pending item position for CommandRemove.
	Index int
}

var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand accepts "list", "send", "clear" and "remove <n>".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	switch fields[0] {
	case "list", "ls":
		return Command{Kind: CommandList}, nil
	case "send":
		return Command{Kind: CommandSend}, nil
	case "clear":
		return Command{Kind: CommandClear}, nil
	case "remove", "rm":
		if len(fields) != 2 {
			return Command{}, errors.New("usage: remove <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("invalid item number %q", fields[1])
		}
		return Command{Kind: CommandRemove, Index: n}, nil
	}
	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
}

// FormatPending renders the pending list with the numbers "remove" expects.
func FormatPending(items []Detected) []string {
	lines := make([]string, 0, len(items))
	for i, d := range items {
		p := d.Resolution.Product
		line := fmt.Sprintf("%d. %s (%s) %.2f", i+1, p.Name, p.ID, p.Price)
		if d.Resolution.NeedsMapping() {
			line += " [unmapped]"
		}
		lines = append(lines, line)
	}
	return lines
}
