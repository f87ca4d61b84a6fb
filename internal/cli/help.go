package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AAAA")).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Help is context-sensitive: with a command selected only its arguments and
// flags (plus global flags) are listed.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		fmt.Fprint(ctx.Stdout, renderHelp(ctx.Model.Name, ctx.Selected(), ctx.Model.Node))
		return nil
	}
}

func renderHelp(appName string, selected, root *kong.Node) string {
	var sb strings.Builder

	node := root
	if selected != nil {
		node = selected
	}

	sb.WriteString(helpTitleStyle.Render("Thunderwild ⛈"))
	sb.WriteString("\n")
	desc := "Thunder event detection for field recordings"
	if node != root && node.Help != "" {
		desc = node.Help
	}
	sb.WriteString(helpDescStyle.Render(desc))
	sb.WriteString("\n")

	sb.WriteString(helpSectionStyle.Render("Usage:"))
	sb.WriteString("\n  ")
	sb.WriteString(usageLine(appName, node, root))
	sb.WriteString("\n")

	writeEntries(&sb, "Commands:", helpArgStyle, getCommands(node), true)
	writeEntries(&sb, "Arguments:", helpArgStyle, getArguments(node), false)
	writeEntries(&sb, "Flags:", helpFlagStyle, getFlags(node), false)

	sb.WriteString("\n")
	return sb.String()
}

// usageLine builds "thunderwild [flags] <command>" for the root and
// "thunderwild detect [flags] <files> ..." for a selected command
func usageLine(appName string, node, root *kong.Node) string {
	if node == root {
		return fmt.Sprintf("%s [flags] <command>", appName)
	}

	parts := []string{appName, node.Path(), "[flags]"}
	for _, arg := range node.Positional {
		parts = append(parts, arg.Summary())
	}
	if len(getCommands(node)) > 0 {
		parts = append(parts, "<command>")
	}
	return strings.Join(parts, " ")
}

// helpEntry is one line of a help section
type helpEntry struct {
	name       string
	help       string
	defaultVal string
}

// writeEntries renders a titled help section; nothing is written for an
// empty section. Aligned pads names to a common width.
func writeEntries(sb *strings.Builder, title string, nameStyle lipgloss.Style, entries []helpEntry, aligned bool) {
	if len(entries) == 0 {
		return
	}
	width := 0
	if aligned {
		for _, e := range entries {
			width = max(width, len(e.name))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString("  ")
		sb.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", width, e.name)))
		if e.help != "" {
			sb.WriteString("  ")
			sb.WriteString(e.help)
		}
		if e.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + e.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func getCommands(node *kong.Node) []helpEntry {
	var commands []helpEntry
	for _, child := range node.Children {
		if child.Hidden || child.Type != kong.CommandNode {
			continue
		}
		commands = append(commands, helpEntry{name: child.Name, help: child.Help})
	}
	return commands
}

func getArguments(node *kong.Node) []helpEntry {
	var args []helpEntry
	for _, arg := range node.Positional {
		args = append(args, helpEntry{name: arg.Summary(), help: arg.Help})
	}
	return args
}

// getFlags lists the node's flags followed by those inherited from its
// parents, so global flags appear under every command
func getFlags(node *kong.Node) []helpEntry {
	flags := []helpEntry{{name: "-h, --help", help: "Show context-sensitive help."}}

	for n := node; n != nil; n = n.Parent {
		for _, f := range n.Flags {
			if f.Name == "help" || f.Hidden {
				continue
			}

			name := "--" + f.Name
			if f.Short != 0 {
				name = fmt.Sprintf("-%c, %s", f.Short, name)
			}
			if !f.IsBool() && f.PlaceHolder != "" {
				name += "=" + strings.ToUpper(f.PlaceHolder)
			}

			defaultVal := ""
			if f.HasDefault {
				defaultVal = f.Default
			}

			flags = append(flags, helpEntry{name: name, help: f.Help, defaultVal: defaultVal})
		}
	}

	return flags
}
