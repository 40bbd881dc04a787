/*
Package log provides structured logging for the containerizer daemon using
zerolog.

Initializing the Logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component Loggers:

	containerizerLog := log.WithComponent("containerizer")
	containerizerLog.Info().Msg("manager dispatch loop started")

	taskLog := log.WithContainerID("c1").
		With().Str("image", "nginx").Logger()
	taskLog.Info().Msg("launching task container")

Before Init is called, Logger defaults to a console writer on stderr so
packages that log during early startup or in tests still produce output.
*/
package log
