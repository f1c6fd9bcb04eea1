package generic

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"maika/internal/core"
	"maika/pkg/util"
)

// maxShardLines bounds the "all shards" listing.
const maxShardLines = 15

type ShardsCommand struct{}

func (c *ShardsCommand) Name() string { return "shards" }
func (c *ShardsCommand) Description() string {
	return "Shows information on all shards or a specific shard."
}
func (c *ShardsCommand) Usage() string     { return "[shard]" }
func (c *ShardsCommand) Aliases() []string { return []string{"shardinfo", "shard"} }
func (c *ShardsCommand) GuildOnly() bool   { return false }
func (c *ShardsCommand) OwnerOnly() bool   { return false }

func (c *ShardsCommand) Run(ctx context.Context, inv *core.Invocation) error {
	if len(inv.Args) == 0 {
		notice, err := inv.Replyf(ctx, "Grabbing shard information")
		if err != nil {
			return err
		}

		shards := inv.Gateway.Shards()
		lines := make([]string, 0, len(shards))
		for _, s := range shards {
			lines = append(lines, shardLine(s))
		}
		if err := inv.Delete(ctx, notice); err != nil {
			return err
		}

		_, err = inv.Code(ctx, "ini", fmt.Sprintf("# CURRENT SHARD:\n%s\n\n# ALL SHARDS:\n%s",
			shardLine(currentShard(inv)), strings.Join(util.Trim(lines, maxShardLines), "\n")))
		return err
	}

	id, err := strconv.Atoi(inv.Arg(0))
	if err == nil {
		for _, s := range inv.Gateway.Shards() {
			if s.ID == id {
				_, err := inv.Code(ctx, "asciidoc", fmt.Sprintf("= Shard #%d =\nLatency :: %dms\nStatus  :: %s",
					s.ID, s.Latency.Milliseconds(), s.Status))
				return err
			}
		}
	}
	return inv.Rejectf("No shard was found.")
}
