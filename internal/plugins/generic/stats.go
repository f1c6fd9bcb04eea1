package generic

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"maika/internal/core"
	"maika/internal/version"
)

// uptime renders the time since start, e.g. "2 hours".
func uptime(start time.Time) string {
	return strings.TrimSpace(humanize.RelTime(start, time.Now(), "", ""))
}

// statsBlock is shared by about and statistics.
func statsBlock(inv *core.Invocation, withDepCount bool) string {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	st := inv.Gateway.Stats()
	deps := version.Dependencies()
	depLabel := "DEPENDENCIES"
	if withDepCount {
		depLabel = fmt.Sprintf("DEPENDENCIES [%d]", len(deps))
	}

	lines := []string{
		"GUILDS: " + humanize.Comma(int64(st.Guilds)),
		"USERS: " + humanize.Comma(int64(st.Users)),
		"CHANNELS: " + humanize.Comma(int64(st.Channels)),
		fmt.Sprintf("SHARDS: %d/%d", inv.Gateway.ShardOf(inv.GuildID()), len(inv.Gateway.Shards())),
		fmt.Sprintf("PLUGINS: %d", inv.Registry.Count()),
		"UPTIME: " + uptime(inv.StartedAt),
		"MEMORY USAGE: " + humanize.Bytes(mem.HeapAlloc),
		depLabel + ": " + strings.Join(version.Short(deps), ", "),
		"DISCORDGO: " + version.ModuleVersion("bwmarrin/discordgo"),
		"GO: " + version.GoVersion,
		"MAIKA: " + version.Version,
	}
	return strings.Join(lines, "\n")
}
