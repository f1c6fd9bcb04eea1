// Package marriage pairs two users. The request waits for the wanted user
// to answer in the same channel.
//
// Both commands write two records. Only the first write is awaited; the
// second runs as a detached job. A crash between the two leaves one record
// updated and is tolerated.
//
// The guards are asymmetric. Marry re-checks the wanted user inside the
// first write and aborts if they married in the meantime; the proposer's
// detached write overwrites unconditionally, so a proposer who married
// someone else while waiting is moved to the wanted user and the other
// spouse's record is left pointing at them.
// Divorce re-checks nothing in either write.
package marriage

import (
	"context"
	"errors"

	"maika/internal/core"
	"maika/internal/event"
	"maika/internal/storage"
)

func New() core.Plugin {
	return &core.StaticPlugin{
		ID:      "Marriage",
		Heading: "👰 Marriage",
		Cmds: []core.Command{
			&MarryCommand{},
			&DivorceCommand{},
		},
	}
}

// resolve finds the user named by the first argument.
func resolve(ctx context.Context, inv *core.Invocation, missing string) (event.Author, error) {
	token := inv.Arg(0)
	if token == "" {
		return event.Author{}, inv.Rejectf("%s", missing)
	}
	u, err := inv.Finder.User(ctx, inv.GuildID(), token)
	if err != nil {
		return event.Author{}, inv.Rejectf("I couldn't find a user matching `%s`.", token)
	}
	return u, nil
}

// record loads a user's record. A user the bot has never seen counts as
// unmarried.
func record(ctx context.Context, inv *core.Invocation, id string) (storage.UserRecord, error) {
	rec, err := inv.Store.User(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.NewUserRecord(id), nil
	}
	return rec, err
}

func setMarriage(m storage.Marriage) func(*storage.UserRecord) error {
	return func(u *storage.UserRecord) error {
		u.Marriage = m
		return nil
	}
}
