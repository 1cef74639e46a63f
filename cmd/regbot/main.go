// Command regbot runs the Telegram registration bot.
package main

import (
	"os"

	"github.com/roskarniz/regbot/core/cmd"
	coreconfig "github.com/roskarniz/regbot/core/config"
	"github.com/roskarniz/regbot/internal/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		Name:              "regbot",
		DefaultConfigPath: "config.yaml",
		Bootstrap: func(cfg *coreconfig.Config) (cmd.TelegramApp, error) {
			a, err := app.Bootstrap(cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	})
	if err != nil {
		// cmd.Run has already logged the failure.
		os.Exit(1)
	}
}
