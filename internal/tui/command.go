package tui

import (
	"fmt"
	"strings"
)

// Command is a prompt command resolved to its canonical name.
type Command struct {
	Name string
	Args string
}

type commandSpec struct {
	name    string
	aliases []string
	usage   string
	needArg bool
}

var commands = []commandSpec{
	{name: "quit", aliases: []string{"q", "exit"}, usage: ":quit"},
	{name: "help", aliases: []string{"h", "?"}, usage: ":help"},
	{name: "search", aliases: []string{"s", "find"}, usage: ":search [text]"},
	{name: "chat", aliases: []string{"open"}, usage: ":chat <name>", needArg: true},
	{name: "global", aliases: []string{"g"}, usage: ":global"},
	{name: "contacts", aliases: []string{"c", "friends"}, usage: ":contacts"},
	{name: "profile", aliases: []string{"me"}, usage: ":profile"},
	{name: "add", usage: ":add <email>", needArg: true},
	{name: "bio", usage: ":bio [text]"},
	{name: "logout", usage: ":logout"},
}

func lookupCommand(name string) (commandSpec, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return commandSpec{}, false
}

// ParseCommand parses prompt input (without the leading ':'). Aliases are
// resolved, and a command missing its required argument reports its usage.
func ParseCommand(input string) (Command, error) {
	name, args, _ := strings.Cut(strings.TrimSpace(input), " ")
	name = strings.ToLower(name)
	spec, ok := lookupCommand(name)
	if !ok {
		return Command{}, fmt.Errorf("unknown command: %s", name)
	}
	cmd := Command{Name: spec.name, Args: strings.TrimSpace(args)}
	if spec.needArg && cmd.Args == "" {
		return Command{}, fmt.Errorf("usage: %s", spec.usage)
	}
	return cmd, nil
}
