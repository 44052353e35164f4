package cmd

import "go.uber.org/fx"

// Module wires every command constructor into the "commands" value group
// Run assembles into the wrench CLI's command tree.
var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(NewInitCommand, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(NewCreateCommand, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(NewMigrateCommand, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(NewRollbackCommand, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(NewResetCommand, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(NewUpCommand, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(NewDownCommand, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(NewListCommand, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
