// Command livepage serves pages whose content is pushed to open browsers as
// it changes.
//
//	curl -X POST --data '<h1>hi</h1>' 'localhost:1123/notes?title=Notes'
//	open http://localhost:1123/notes
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/livepage/app"
	"github.com/kbukum/livepage/config"
	"github.com/kbukum/livepage/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "livepage:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("livepage", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "path to config.yml")
	envFile := flags.String("env-file", "", "path to a .env file")
	port := flags.IntP("port", "p", 0, "listen port (overrides config)")
	showVersion := flags.Bool("version", false, "print version and exit")
	_ = flags.Parse(os.Args[1:])

	if *showVersion {
		fmt.Println(version.GetShortVersion())
		return nil
	}

	var cfg app.Config
	opts := []config.LoaderOption{config.WithEnvPrefix("LIVEPAGE")}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	if *envFile != "" {
		opts = append(opts, config.WithEnvFile(*envFile))
	}
	if err := config.LoadConfig(app.ServiceName, &cfg, opts...); err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if cfg.Version == "" {
		cfg.Version = version.GetShortVersion()
	}

	a, err := app.New(&cfg)
	if err != nil {
		return err
	}
	return a.Run(context.Background())
}
