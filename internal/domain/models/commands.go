package models

import "strings"

// CommandType enumerates the line commands understood by text input surfaces.
type CommandType string

const (
	CommandAdd     CommandType = "add"
	CommandEdit    CommandType = "edit"
	CommandSave    CommandType = "save"
	CommandCancel  CommandType = "cancel"
	CommandDelete  CommandType = "delete"
	CommandConfirm CommandType = "confirm"
	CommandKeep    CommandType = "keep"
	CommandUndo    CommandType = "undo"
	CommandClear   CommandType = "clear"
	CommandSort    CommandType = "sort"
	CommandList    CommandType = "list"
	CommandExport  CommandType = "export"
	CommandAttach  CommandType = "attach"
	CommandDetach  CommandType = "detach"
	CommandHelp    CommandType = "help"
	CommandQuit    CommandType = "quit"
	CommandUnknown CommandType = "unknown"
)

var knownCommands = map[string]CommandType{
	"add":     CommandAdd,
	"edit":    CommandEdit,
	"save":    CommandSave,
	"cancel":  CommandCancel,
	"delete":  CommandDelete,
	"confirm": CommandConfirm,
	"keep":    CommandKeep,
	"undo":    CommandUndo,
	"clear":   CommandClear,
	"sort":    CommandSort,
	"list":    CommandList,
	"export":  CommandExport,
	"attach":  CommandAttach,
	"detach":  CommandDetach,
	"help":    CommandHelp,
	"quit":    CommandQuit,
	"exit":    CommandQuit,
}

// Command represents a parsed line of user input.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from a free-form line such as "/add Brand A 1000 100".
// Only the command word is case-insensitive; arguments keep their original case
// because brand names are displayed as typed.
func ParseCommand(message string) Command {
	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		return Command{Type: CommandUnknown, Raw: message}
	}

	cmd := Command{Raw: message, Type: CommandUnknown}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if t, ok := knownCommands[head]; ok {
		cmd.Type = t
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}

// SplitEntryArgs splits "<name...> <volume> <price>" arguments.
// It returns ok=false when fewer than three tokens are present.
func SplitEntryArgs(args []string) (name, volume, price string, ok bool) {
	if len(args) < 3 {
		return "", "", "", false
	}
	n := len(args)
	return strings.Join(args[:n-2], " "), args[n-2], args[n-1], true
}
