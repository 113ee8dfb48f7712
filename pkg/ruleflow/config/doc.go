/*
Package config reads ruleflow settings from YAML or JSON documents.

A Config wraps the decoded map and offers typed accessors that fall back to
a default when a key is missing or has the wrong shape:

	cfg, err := config.FromFile("ruleflow.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	depth := cfg.Int("max_depth", 32)
	strict := cfg.Bool("strict_literals", false)
	level := cfg.Level("log_level", slog.LevelInfo)

Recognized engine keys are max_depth, strict_literals, metrics and tracing;
see ruleflow.OptionsFromConfig. The CLI additionally reads log_level and a
defaults section holding schema, record and rule store paths.

Integers decoded from JSON arrive as float64. Int accepts them only when
they have no fractional part.

Config is safe for concurrent reads.
*/
package config
