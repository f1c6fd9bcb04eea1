package generic

import (
	"context"
	"fmt"
	"time"

	"maika/internal/core"
)

type PingCommand struct{}

func (c *PingCommand) Name() string        { return "ping" }
func (c *PingCommand) Description() string { return "Pong!" }
func (c *PingCommand) Usage() string       { return "" }
func (c *PingCommand) Aliases() []string   { return []string{"ping-pong"} }
func (c *PingCommand) GuildOnly() bool     { return false }
func (c *PingCommand) OwnerOnly() bool     { return false }

func (c *PingCommand) Run(ctx context.Context, inv *core.Invocation) error {
	start := time.Now()
	pending, err := inv.Replyf(ctx, "Pong?")
	if err != nil {
		return err
	}
	if err := inv.Delete(ctx, pending); err != nil {
		return err
	}

	shard := currentShard(inv)
	_, err = inv.Replyf(ctx, "Pong!\n\n:rosette: **Shard #%d**: `%dms`\n:pencil: **Message**: `%dms`",
		shard.ID, shard.Latency.Milliseconds(), time.Since(start).Milliseconds())
	return err
}

// currentShard is the shard serving the invocation's guild.
func currentShard(inv *core.Invocation) core.ShardInfo {
	id := inv.Gateway.ShardOf(inv.GuildID())
	for _, s := range inv.Gateway.Shards() {
		if s.ID == id {
			return s
		}
	}
	return core.ShardInfo{ID: id, Status: "unknown"}
}

func shardLine(s core.ShardInfo) string {
	return fmt.Sprintf("[Shard #%d]: Latency: %dms | Status: %s", s.ID, s.Latency.Milliseconds(), s.Status)
}
