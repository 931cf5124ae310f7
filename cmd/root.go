/*
 * Copyright (C) 2025 Onetimesecret community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/bitrixdevelop/onetimesecret/billing"
	"github.com/bitrixdevelop/onetimesecret/core"
	"github.com/bitrixdevelop/onetimesecret/limiter"
	"github.com/bitrixdevelop/onetimesecret/logic"
	"github.com/bitrixdevelop/onetimesecret/secret"
	"github.com/bitrixdevelop/onetimesecret/session"
	"github.com/bitrixdevelop/onetimesecret/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var stdOutWriter io.Writer = os.Stdout

// echoCreator can be overridden to aid testing.
var echoCreator = core.CreateEchoServer

func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ots",
		Short: "One-time secret sharing server.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
}

func createPrintConfigCommand(system *core.System) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Prints the current config",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Current system config")
			cmd.Println(system.Config.PrintConfig())
		},
	}
}

func createServerCommand(system *core.System) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Starts the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), system)
		},
	}
}

func runServer(ctx context.Context, system *core.System) error {
	logrus.Info("Starting server with config:")
	logrus.Info(system.Config.PrintConfig())

	// check config on all engines
	if err := system.Configure(); err != nil {
		return err
	}

	// start engines
	if err := system.Start(); err != nil {
		return err
	}
	defer func() {
		if err := system.Shutdown(); err != nil {
			logrus.WithError(err).Error("Shutdown failed")
		}
	}()

	// wire the operational endpoints
	echoServer := echoCreator()
	system.VisitEngines(func(engine core.Engine) {
		if routable, ok := engine.(core.Routable); ok {
			routable.Routes(echoServer)
		}
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- echoServer.Start(system.Config.HTTP.Address)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logrus.Info("Shutting down...")
		return echoServer.Shutdown(context.Background())
	}
}

// CreateCommand creates the command with all subcommands to run the system.
func CreateCommand(system *core.System) *cobra.Command {
	command := createRootCommand()
	command.SetOut(stdOutWriter)
	command.AddCommand(createServerCommand(system))
	command.AddCommand(createPrintConfigCommand(system))
	command.PersistentFlags().AddFlagSet(core.FlagSet())
	return command
}

// CreateSystem creates the system and registers all engines, in dependency
// order: engines configure in registration order, so an engine must come
// after the ones it reads from.
func CreateSystem() *core.System {
	system := core.NewSystem()

	storageInstance := storage.New()
	limiterInstance := limiter.NewEngine(storageInstance)
	sessionsInstance := session.NewEngine(storageInstance)
	secretsInstance := secret.NewEngine(storageInstance)
	billingInstance := billing.NewEngine(storageInstance)

	system.RegisterEngine(core.NewStatusEngine(system))
	system.RegisterEngine(core.NewMetricsEngine())
	system.RegisterEngine(storageInstance)
	system.RegisterEngine(limiterInstance)
	system.RegisterEngine(sessionsInstance)
	system.RegisterEngine(secretsInstance)
	system.RegisterEngine(billingInstance)
	system.RegisterEngine(logic.NewEngine(limiterInstance, sessionsInstance, secretsInstance, billingInstance))
	return system
}

// Execute loads the config into the system and executes the root command.
func Execute(ctx context.Context, system *core.System) error {
	command := CreateCommand(system)
	command.SetOut(stdOutWriter)

	if err := system.Load(command.PersistentFlags()); err != nil {
		return err
	}

	return command.ExecuteContext(ctx)
}
