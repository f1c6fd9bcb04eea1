package marriage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maika/internal/collector"
	"maika/internal/core"
	"maika/internal/storage"
)

type answer int

const (
	declined answer = iota
	accepted
	cancelled
)

// parseAnswer maps a reply onto an answer. Anything unrecognised declines.
func parseAnswer(content string) answer {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "yes", "y":
		return accepted
	case "cancel", "finish":
		return cancelled
	default:
		return declined
	}
}

var errTaken = errors.New("already married")

type MarryCommand struct{}

func (c *MarryCommand) Name() string        { return "marry" }
func (c *MarryCommand) Description() string { return "Marry a user!" }
func (c *MarryCommand) Usage() string       { return "<user>" }
func (c *MarryCommand) Aliases() []string   { return []string{"marriage"} }
func (c *MarryCommand) GuildOnly() bool     { return true }
func (c *MarryCommand) OwnerOnly() bool     { return false }

func (c *MarryCommand) Run(ctx context.Context, inv *core.Invocation) error {
	sender := inv.Sender()
	wanted, err := resolve(ctx, inv, "You must provide a user ID, mention, or name.")
	if err != nil {
		return err
	}
	if wanted.ID == sender.ID {
		return inv.Rejectf("You can't marry yourself, you filthy person.")
	}

	self, err := record(ctx, inv, sender.ID)
	if err != nil {
		return err
	}
	other, err := inv.Store.User(ctx, wanted.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return inv.Rejectf("**%s** hasn't talked to me yet, so I can't marry you two.", wanted.Username)
	}
	if err != nil {
		return err
	}
	if other.Marriage.Is {
		return inv.Rejectf("That person is already married.")
	}
	if self.Marriage.Is {
		return inv.Rejectf("You filthy cheater... You are already married!")
	}

	prompt, err := inv.Reply(ctx, fmt.Sprintf(
		"%s: Are you sure you wanna marry %s?\nReply with `yes` or `no` in the next %s.\nReply with `cancel` to cancel this message.",
		wanted.Mention(), sender.Mention(), inv.Config.MarryTimeout))
	if err != nil {
		return err
	}

	res, err := inv.Collector.Await(ctx, collector.Scope{ChannelID: inv.ChannelID(), ResponderID: wanted.ID},
		inv.Config.MarryTimeout, nil)
	if errors.Is(err, collector.ErrAlreadyPending) {
		_ = inv.Delete(ctx, prompt)
		return inv.Rejectf("**%s** is already answering another question here.", wanted.Username)
	}
	if err != nil {
		return err
	}

	if res.TimedOut {
		_, err = inv.Edit(ctx, prompt, fmt.Sprintf("**%s**: They didn't reply, sorry...", sender.Username))
		return err
	}

	switch parseAnswer(res.Content()) {
	case cancelled:
		_, err = inv.Edit(ctx, prompt, fmt.Sprintf("**%s**: Cancelled marriage with %s", wanted.Username, sender.Mention()))
		return err
	case declined:
		_, err = inv.Edit(ctx, prompt, fmt.Sprintf("**%s**: They said no, so you're forever alone.", sender.Username))
		return err
	}

	err = inv.Store.UpdateUser(ctx, wanted.ID, func(u *storage.UserRecord) error {
		if u.Marriage.Is {
			return errTaken
		}
		u.Marriage = storage.Marriage{Is: true, To: sender.ID}
		return nil
	})
	if errors.Is(err, errTaken) {
		_, err = inv.Edit(ctx, prompt, fmt.Sprintf("**%s**: Too late, they got married in the meantime.", sender.Username))
		return err
	}
	if err != nil {
		return fmt.Errorf("marry %s: %w", wanted.ID, err)
	}

	inv.Jobs.Detach("marry", func(ctx context.Context) error {
		return inv.Store.UpdateUser(ctx, sender.ID, setMarriage(storage.Marriage{Is: true, To: wanted.ID}))
	})

	_, err = inv.Edit(ctx, prompt, fmt.Sprintf(
		":sparkling_heart: %s and %s are happily married! :sparkling_heart:\nI wonder when the honeymoon is gonna occur?",
		sender.Mention(), wanted.Mention()))
	return err
}
