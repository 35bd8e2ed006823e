package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	LogLevel  string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"warn"`
	Config    string `help:"YAML configuration file." type:"existingfile" short:"c"`
}

type Commands struct {
	Globals

	Stats   StatsCmd   `cmd:"" help:"Scan files into one store and report how values are held."`
	Lex     LexCmd     `cmd:"" help:"Show the tokens of a file with the kind of atom holding each value."`
	Inspect InspectCmd `cmd:"" help:"Show how texts are represented."`
	Watch   WatchCmd   `cmd:"" help:"Rescan a file whenever it changes and log store statistics."`
	Serve   ServeCmd   `cmd:"" help:"Serve store statistics and metrics over HTTP."`
}
