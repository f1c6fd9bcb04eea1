package marriage

import (
	"context"
	"fmt"

	"maika/internal/core"
	"maika/internal/storage"
)

type DivorceCommand struct{}

func (c *DivorceCommand) Name() string        { return "divorce" }
func (c *DivorceCommand) Description() string { return "W-what! You want to divorce? Sure I guess..." }
func (c *DivorceCommand) Usage() string       { return "<user>" }
func (c *DivorceCommand) Aliases() []string   { return []string{"break-up"} }
func (c *DivorceCommand) GuildOnly() bool     { return true }
func (c *DivorceCommand) OwnerOnly() bool     { return false }

func (c *DivorceCommand) Run(ctx context.Context, inv *core.Invocation) error {
	sender := inv.Sender()
	wanted, err := resolve(ctx, inv, "You must provide your loved one!")
	if err != nil {
		return err
	}

	self, err := record(ctx, inv, sender.ID)
	if err != nil {
		return err
	}
	loved, err := record(ctx, inv, wanted.ID)
	if err != nil {
		return err
	}

	switch {
	case !loved.Marriage.Is:
		return inv.Rejectf("So, you think I'm stupid huh? **%s** isn't even married!", wanted.Username)
	case loved.Marriage.To != sender.ID:
		return inv.Rejectf("Stop thinking I'm stupid! I'm not ok, but anyway that's not even your loved one...")
	case !self.Marriage.Is:
		return inv.Rejectf("Why do you think I'm stupid! You're not even married...")
	}

	if err := inv.Store.UpdateUser(ctx, sender.ID, setMarriage(storage.Marriage{})); err != nil {
		return fmt.Errorf("divorce %s: %w", sender.ID, err)
	}
	inv.Jobs.Detach("divorce", func(ctx context.Context) error {
		return inv.Store.UpdateUser(ctx, wanted.ID, setMarriage(storage.Marriage{}))
	})

	_, err = inv.Reply(ctx, fmt.Sprintf(
		":broken_heart: %s and %s have broken up... :broken_heart:\nI shipped them so hard though... :(",
		wanted.Mention(), sender.Mention()))
	return err
}
