// Package generic holds the informational commands every deployment ships
// with.
package generic

import "maika/internal/core"

func New() core.Plugin {
	return &core.StaticPlugin{
		ID:      "Generic",
		Heading: "ℹ Generic",
		Cmds: []core.Command{
			&AboutCommand{},
			&HelpCommand{},
			&InviteCommand{},
			&PingCommand{},
			&ShardsCommand{},
			&SourceCommand{},
			&StatisticsCommand{},
			&UptimeCommand{},
		},
	}
}
