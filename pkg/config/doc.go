/*
Package config loads the settings of an evcodeshift run.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	   +--------+------+-----+--------+
	   |        |            |        |
	+--+--+  +--+--+      +--+--+  +--+--+
	| YAML|  | JSON|      | HCL |  | TOML|
	+-----+  +-----+      +-----+  +-----+
	                   |
	            +------+------+
	            | EVCODESHIFT_ |
	            |  env (koanf) |
	            +-------------+

🔄 Flow:
1. Find looks for .evcodeshift.{yaml,yml,json,hcl,toml}
2. Load picks the parser registered for the extension
3. ApplyEnv overlays EVCODESHIFT_* variables
4. Validate fills defaults and checks globs and dialect

Flags given on the command line are applied by the caller after all of the
above, so they always win.

🔍 Example:

	cfg, err := config.Load(ctx, ".evcodeshift.yaml")
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}
	opts := cfg.BatchOptions()
*/
package config
