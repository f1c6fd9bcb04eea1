// Package dispatch turns inbound chat messages into guarded command
// executions.
//
// Each event walks a fixed pipeline and may stop at any stage:
//
//	filter -> provision guild -> provision user -> prefix -> tokenize
//	       -> lookup -> guard -> execute
//
// The first message from an unseen guild or user only creates its record;
// the command, if any, is not run. Redelivered events find the record and
// proceed normally.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"maika/internal/core"
	"maika/internal/event"
	"maika/internal/metrics"
	"maika/internal/storage"
)

// Dispatcher is safe for concurrent use; it holds no per-event state.
type Dispatcher struct {
	svc     *core.Services
	metrics *metrics.Metrics
	logger  zerolog.Logger
	newID   func() string
}

func New(svc *core.Services, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		svc:     svc,
		metrics: m,
		logger:  logger.With().Str("component", "dispatch").Logger(),
		newID:   uuid.NewString,
	}
}

// Handle runs one message through the pipeline. It never panics and never
// returns an error; failures are logged and, where the sender should know,
// answered in the channel.
func (d *Dispatcher) Handle(ctx context.Context, msg event.Message) {
	if msg.Author.Bot || !d.svc.Gateway.Ready() {
		d.metrics.Event(metrics.EventIgnored)
		return
	}

	var guild *storage.GuildRecord
	if msg.Channel.InGuild() {
		g, created, err := d.provisionGuild(ctx, msg.Channel.GuildID)
		if err != nil {
			d.provisionFailed(err, "guild", msg)
			return
		}
		if created {
			d.metrics.Event(metrics.EventProvisioned)
			return
		}
		guild = &g
	}

	created, err := d.provisionUser(ctx, msg.Author.ID)
	if err != nil {
		d.provisionFailed(err, "user", msg)
		return
	}
	if created {
		d.metrics.Event(metrics.EventProvisioned)
		return
	}

	prefix, ok := d.matchPrefix(msg.Content, guild)
	if !ok {
		d.metrics.Event(metrics.EventNoPrefix)
		return
	}

	fields := strings.Fields(msg.Content[len(prefix):])
	if len(fields) == 0 {
		d.metrics.Event(metrics.EventNoPrefix)
		return
	}

	cmd, ok := d.svc.Registry.Lookup(fields[0])
	if !ok {
		d.metrics.Event(metrics.EventMiss)
		return
	}
	d.metrics.Event(metrics.EventDispatched)

	inv := &core.Invocation{
		ID:       d.newID(),
		Message:  msg,
		Args:     fields[1:],
		Prefix:   prefix,
		Command:  fields[0],
		Guild:    guild,
		Services: d.svc,
	}
	d.execute(ctx, cmd, inv)
}

// provisionGuild fetches the guild record, creating it if absent. created
// is also true when a concurrent delivery inserted it first.
func (d *Dispatcher) provisionGuild(ctx context.Context, id string) (storage.GuildRecord, bool, error) {
	g, err := d.svc.Store.Guild(ctx, id)
	if err == nil {
		return g, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return g, false, fmt.Errorf("fetch guild %s: %w", id, err)
	}

	err = d.svc.Store.InsertGuild(ctx, storage.NewGuildRecord(id, d.svc.Config.Prefix))
	switch {
	case err == nil:
		d.metrics.Provision("guild")
		d.logger.Info().Str("guild", id).Msg("provisioned guild")
		return g, true, nil
	case errors.Is(err, storage.ErrAlreadyExists):
		return g, true, nil
	default:
		return g, false, fmt.Errorf("insert guild %s: %w", id, err)
	}
}

func (d *Dispatcher) provisionUser(ctx context.Context, id string) (bool, error) {
	_, err := d.svc.Store.User(ctx, id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("fetch user %s: %w", id, err)
	}

	err = d.svc.Store.InsertUser(ctx, storage.NewUserRecord(id))
	switch {
	case err == nil:
		d.metrics.Provision("user")
		d.logger.Debug().Str("user", id).Msg("provisioned user")
		return true, nil
	case errors.Is(err, storage.ErrAlreadyExists):
		return true, nil
	default:
		return false, fmt.Errorf("insert user %s: %w", id, err)
	}
}

func (d *Dispatcher) provisionFailed(err error, kind string, msg event.Message) {
	d.metrics.Event(metrics.EventFailed)
	d.logger.Error().
		Err(err).
		Str("kind", kind).
		Str("guild", msg.Channel.GuildID).
		Str("user", msg.Author.ID).
		Str("channel", msg.Channel.ID).
		Msg("provisioning failed")
}

// Prefixes returns the candidate prefixes in precedence order: the bot
// mention (both renderings), the global default, then the guild prefix.
func (d *Dispatcher) Prefixes(guild *storage.GuildRecord) []string {
	self := d.svc.Gateway.Self().ID
	out := []string{
		"<@" + self + "> ",
		"<@!" + self + "> ",
		d.svc.Config.Prefix,
	}
	if guild != nil && guild.Prefix != "" {
		out = append(out, guild.Prefix)
	}
	return out
}

func (d *Dispatcher) matchPrefix(content string, guild *storage.GuildRecord) (string, bool) {
	for _, p := range d.Prefixes(guild) {
		if p != "" && strings.HasPrefix(content, p) {
			return p, true
		}
	}
	return "", false
}

func (d *Dispatcher) execute(ctx context.Context, cmd core.Command, inv *core.Invocation) {
	guarded := core.Apply(cmd,
		core.WithCommandLogger(d.logger),
		core.WithGuildOnly(),
		core.WithOwnerOnly(),
	)

	stack, err := run(ctx, guarded, inv)
	if err == nil {
		d.metrics.Command(cmd.Name(), metrics.ResultOK)
		return
	}

	if ue, ok := core.AsUserError(err); ok {
		d.metrics.Command(cmd.Name(), metrics.ResultRejected)
		d.reply(ctx, inv, ue.Msg)
		return
	}

	result := metrics.ResultFailed
	ev := d.logger.Error().Err(err)
	if stack != nil {
		result = metrics.ResultPanicked
		ev = ev.Bytes("stack", stack)
	}
	d.metrics.Command(cmd.Name(), result)
	ev.Str("invocation", inv.ID).
		Str("command", cmd.Name()).
		Str("user", inv.Sender().ID).
		Str("channel", inv.ChannelID()).
		Str("guild", inv.GuildID()).
		Str("content", inv.Message.Content).
		Msg("command failed")

	d.reply(ctx, inv, fmt.Sprintf("Command **`%s`** has failed to run.", cmd.Name()))
}

// run invokes cmd and converts a panic into an error. stack is set only
// when cmd panicked.
func run(ctx context.Context, cmd core.Command, inv *core.Invocation) (stack []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stack = debug.Stack()
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return nil, cmd.Run(ctx, inv)
}

func (d *Dispatcher) reply(ctx context.Context, inv *core.Invocation, text string) {
	if _, err := inv.Replyf(ctx, "%s", text); err != nil {
		d.logger.Warn().Err(err).Str("invocation", inv.ID).Msg("failed to send reply")
	}
}
