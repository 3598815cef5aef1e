/*
Package log provides structured logging for the ordinal index using
zerolog: a package-level Logger initialized once via Init, and
component-scoped child loggers via WithComponent/WithBlock/WithTx.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	oicLog := log.WithComponent("oic")
	oicLog.Info().Int64("block", blockSeq).Msg("block applied")
*/
package log
