package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/roskarniz/regbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command the bot answers.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are routed through the admin check and kept out of the menu.
	AdminOnly bool
	// Hidden commands work but are not published in the menu.
	Hidden  bool
	Aliases []string
}

func (c Command) inMenu() bool {
	return !c.AdminOnly && !c.Hidden
}

// Registry holds the bot's commands keyed by "/name".
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// RegisterCommand adds cmd under name, which must start with "/".
func (r *Registry) RegisterCommand(name string, cmd Command) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return fmt.Errorf("command %q: name must start with /", name)
	case cmd.Handler == nil:
		return fmt.Errorf("command %q: nil handler", name)
	case cmd.Description == "":
		return fmt.Errorf("command %q: empty description", name)
	}
	if _, dup := r.commands[name]; dup {
		return fmt.Errorf("command %q: already registered", name)
	}
	r.commands[name] = cmd
	return nil
}

// Commands returns the registered commands. The map must not be modified.
func (r *Registry) Commands() map[string]Command {
	return r.commands
}

// MenuCommands lists the commands shown in the Telegram menu, sorted by name.
func (r *Registry) MenuCommands() []tele.Command {
	var menu []tele.Command
	for name, cmd := range r.commands {
		if cmd.inMenu() {
			menu = append(menu, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
		}
	}
	sort.Slice(menu, func(i, j int) bool { return menu[i].Text < menu[j].Text })
	return menu
}

// InitBotCommands publishes the menu. A failure is logged; the bot works without a menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	if bot == nil || reg == nil {
		return
	}
	menu := reg.MenuCommands()
	if err := bot.SetCommands(menu); err != nil {
		logger.Warn(context.Background(), "tg.wire", "commands.publish",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Info(context.Background(), "tg.wire", "commands.publish",
		slog.String("status", "ok"),
		slog.Int("count", len(menu)),
	)
}
