package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Middleware wraps a command (guards, logging). The wrapped value is still a
// Command; Root reaches the original.
type Middleware func(Command) Command

// Apply applies middlewares in order; the first in the list is the outermost.
func Apply(c Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// Unwrappable is implemented by wrapped commands.
type Unwrappable interface {
	Command
	Unwrap() Command
}

type wrapped struct {
	Command
	run func(ctx context.Context, inv *Invocation) error
}

func (w *wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.run != nil {
		return w.run(ctx, inv)
	}
	return w.Command.Run(ctx, inv)
}

func (w *wrapped) Unwrap() Command { return w.Command }

// Wrap returns a command that runs run instead of c.Run and delegates
// everything else to c.
func Wrap(c Command, run func(ctx context.Context, inv *Invocation) error) Command {
	return &wrapped{Command: c, run: run}
}

// Root unwraps a command until the underlying command is not Unwrappable.
func Root(c Command) Command {
	for {
		u, ok := c.(Unwrappable)
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}

// WithGuildOnly rejects guild-only commands outside guild channels.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, inv *Invocation) error {
			if cmd.GuildOnly() && !inv.InGuild() {
				return Rejectf("You must be in a guild to execute the **`%s`** command.", cmd.Name())
			}
			return cmd.Run(ctx, inv)
		})
	}
}

// WithOwnerOnly rejects owner-only commands for senders outside the
// operator set.
func WithOwnerOnly() Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, inv *Invocation) error {
			if cmd.OwnerOnly() && !inv.IsOwner() {
				return Rejectf("You must be a developer to execute the **`%s`** command.", cmd.Name())
			}
			return cmd.Run(ctx, inv)
		})
	}
}

// WithCommandLogger logs every invocation at debug level with its outcome.
func WithCommandLogger(logger zerolog.Logger) Middleware {
	return func(cmd Command) Command {
		return Wrap(cmd, func(ctx context.Context, inv *Invocation) error {
			start := time.Now()
			err := cmd.Run(ctx, inv)

			ev := logger.Debug()
			if _, rejected := AsUserError(err); err != nil && !rejected {
				ev = logger.Warn().Err(err)
			}
			ev.Str("invocation", inv.ID).
				Str("command", cmd.Name()).
				Str("user", inv.Sender().ID).
				Str("channel", inv.ChannelID()).
				Dur("took", time.Since(start)).
				Msg("command executed")
			return err
		})
	}
}
