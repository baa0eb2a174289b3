package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
	"github.com/mamadbah2/pricecheck/internal/service/comparison"
	"github.com/mamadbah2/pricecheck/internal/service/export"
	"github.com/mamadbah2/pricecheck/internal/service/ranking"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates the command word is not recognised.
var ErrUnsupportedCommand = errors.New("unsupported command")

// ErrAttachUnavailable is returned by surfaces that cannot read local files.
var ErrAttachUnavailable = errors.New("attachments are not available here")

// ClipboardSink is the export target name that only returns the text.
const ClipboardSink = "clipboard"

// Usage lists the supported line commands.
const Usage = `Commands:
  /add <brand> <volume ml> <price>   add an entry
  /edit <id>                         load an entry into the form
  /save <brand> <volume ml> <price>  save the entry being edited
  /cancel                            discard the edit
  /delete <id>                       ask to delete an entry
  /confirm | /keep                   confirm or cancel the deletion
  /undo                              restore the last deleted entry
  /clear yes                         remove every entry
  /sort name|volume|price|unitPrice  change the order
  /list                              show the ranked list
  /export [sink]                     export the list
  /attach <path> | /detach           set or remove the form image
  /quit                              leave`

// Opener reads a local file for /attach.
type Opener func(path string) (io.ReadCloser, error)

// Dispatcher executes parsed commands against a session and renders a reply.
type Dispatcher interface {
	HandleCommand(ctx context.Context, session *comparison.Session, cmd models.Command) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	formatter *ranking.Formatter
	sinks     map[string]export.Sink
	open      Opener
	logger    *zap.Logger
}

// NewService constructs a command dispatcher. A nil opener disables /attach.
func NewService(formatter *ranking.Formatter, sinks map[string]export.Sink, open Opener, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		formatter: formatter,
		sinks:     sinks,
		open:      open,
		logger:    logger,
	}
}

// HandleCommand applies the command and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, session *comparison.Session, cmd models.Command) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("session_id", session.ID()), zap.Int("args", len(cmd.Args)))

	switch cmd.Type {
	case models.CommandAdd:
		draft, err := draftFromArgs(cmd.Args)
		if err != nil {
			return "", err
		}
		entry, err := session.Add(draft)
		if err != nil {
			return "", err
		}
		return "Added " + s.describeEntry(entry), nil
	case models.CommandEdit:
		id, err := idFromArgs(cmd.Args)
		if err != nil {
			return "", err
		}
		draft, err := session.BeginEdit(id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Editing #%d: %s %s %s\nSend /save <brand> <volume> <price> or /cancel.", id, draft.Name, draft.Volume, draft.Price), nil
	case models.CommandSave:
		draft, err := draftFromArgs(cmd.Args)
		if err != nil {
			return "", err
		}
		entry, err := session.Save(draft)
		if err != nil {
			return "", err
		}
		return "Saved " + s.describeEntry(entry), nil
	case models.CommandCancel:
		if err := session.CancelEdit(); err != nil {
			return "", err
		}
		return "Edit cancelled.", nil
	case models.CommandDelete:
		id, err := idFromArgs(cmd.Args)
		if err != nil {
			return "", err
		}
		entry, err := session.RequestDelete(id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Delete %s? Send /confirm or /keep.", entry.Name), nil
	case models.CommandConfirm:
		entry, err := session.ConfirmDelete()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted %s. Send /undo to restore it.", entry.Name), nil
	case models.CommandKeep:
		if err := session.CancelDelete(); err != nil {
			return "", err
		}
		return "Deletion cancelled.", nil
	case models.CommandUndo:
		entry, err := session.Undo()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Restored %s.", entry.Name), nil
	case models.CommandClear:
		if len(cmd.Args) == 0 || !strings.EqualFold(cmd.Args[0], "yes") {
			return fmt.Sprintf("This removes all %d entries. Send /clear yes to confirm.", len(session.View().Entries)), nil
		}
		if err := session.ClearAll(); err != nil {
			return "", err
		}
		return "All entries removed.", nil
	case models.CommandSort:
		if len(cmd.Args) != 1 {
			return "", ErrInvalidArguments
		}
		key, err := session.SetSortKey(cmd.Args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Sorted by %s.\n%s", key, RenderList(session.View())), nil
	case models.CommandList:
		return RenderList(session.View()), nil
	case models.CommandExport:
		return s.export(ctx, session, cmd.Args)
	case models.CommandAttach:
		return s.attach(session, cmd.Args)
	case models.CommandDetach:
		session.Detach()
		return "Image removed.", nil
	case models.CommandHelp:
		return Usage, nil
	case models.CommandQuit:
		return "Bye.", nil
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) export(ctx context.Context, session *comparison.Session, args []string) (string, error) {
	name := ClipboardSink
	if len(args) > 0 {
		name = strings.ToLower(args[0])
	}

	var sink export.Sink
	if name != ClipboardSink {
		var ok bool
		if sink, ok = s.sinks[name]; !ok {
			return "", fmt.Errorf("%w: export target %q is not configured", ErrInvalidArguments, name)
		}
	}

	snapshot, err := session.Export(ctx, sink)
	if err != nil {
		return "", err
	}
	if sink == nil {
		return snapshot.Text, nil
	}
	return fmt.Sprintf("Exported %d entries to %s.", len(snapshot.Rows), name), nil
}

func (s *Service) attach(session *comparison.Session, args []string) (string, error) {
	if s.open == nil {
		return "", ErrAttachUnavailable
	}
	if len(args) == 0 {
		return "", ErrInvalidArguments
	}

	f, err := s.open(strings.Join(args, " "))
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	if err := <-session.Attach(f); err != nil {
		return "", err
	}
	return "Image attached to the form.", nil
}

func (s *Service) describeEntry(e models.Entry) string {
	return fmt.Sprintf("#%d %s: %s at %s (%s/%s)", e.ID, e.Name,
		s.formatter.Volume(e.Volume), s.formatter.Price(e.Price),
		s.formatter.UnitPrice(ranking.UnitPrice(e)), s.formatter.MilliliterLabel())
}

// RenderList prints the ranked list, one line per entry, marking the tiers.
func RenderList(view comparison.View) string {
	if len(view.Entries) == 0 {
		return "The list is empty."
	}

	var b strings.Builder
	for i, e := range view.Entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. #%d %s - %s - %s - %s", i+1, e.ID, e.Name, e.VolumeText, e.PriceText, e.UnitPriceText)
		switch e.Tier {
		case ranking.TierCheapest:
			b.WriteString(" [cheapest]")
		case ranking.TierSecondCheapest:
			b.WriteString(" [second cheapest]")
		}
		if e.HasImage() {
			b.WriteString(" [image]")
		}
	}
	return b.String()
}

// Describe turns a dispatcher error into a message for the user.
func Describe(err error) string {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		return "Please check the form: " + strings.TrimPrefix(vErr.Error(), "invalid entry: ") + "."
	case errors.Is(err, ErrUnsupportedCommand):
		return "Unknown command. Send /help for the list."
	case errors.Is(err, ErrInvalidArguments):
		return "Those arguments do not fit the command. Send /help for examples."
	case errors.Is(err, ErrAttachUnavailable):
		return "Attachments are not available here."
	case errors.Is(err, models.ErrInvalidAttachment):
		return "That file cannot be used as an image."
	case errors.Is(err, models.ErrNotFound):
		return "There is no entry with that number."
	case errors.Is(err, models.ErrEditInProgress):
		return "Finish the current edit with /save or /cancel first."
	case errors.Is(err, models.ErrNotEditing):
		return "Nothing is being edited."
	case errors.Is(err, models.ErrNoPendingDelete):
		return "No deletion is waiting for confirmation."
	case errors.Is(err, models.ErrNothingToUndo):
		return "There is nothing to undo."
	case errors.Is(err, models.ErrUnknownSortKey):
		return "Sort by name, volume, price or unitPrice."
	case errors.Is(err, models.ErrExport):
		return "The export failed; your list is unchanged."
	default:
		return "Something went wrong: " + err.Error()
	}
}

func draftFromArgs(args []string) (comparison.Draft, error) {
	name, volume, price, ok := models.SplitEntryArgs(args)
	if !ok {
		return comparison.Draft{}, ErrInvalidArguments
	}
	return comparison.Draft{Name: name, Volume: volume, Price: price}, nil
}

func idFromArgs(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, ErrInvalidArguments
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil {
		return 0, ErrInvalidArguments
	}
	return id, nil
}
