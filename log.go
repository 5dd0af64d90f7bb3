package hive

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the package-wide logger for scheduler diagnostics. Its only
// event is the debug line WorkloadBuilder.Build writes when a compiled
// workload has borrow conflicts; storage registration and system failures
// are not logged. It is never consulted on hot paths like
// SparseSet.Insert/Get.
var Logger = zerolog.New(io.Discard)

// SetLogOutput points Logger at w, writing structured (JSON) events.
// Libraries default to discarding logs until a host application opts in.
func SetLogOutput(w io.Writer) {
	Logger = zerolog.New(w).With().Timestamp().Logger()
}

// SetLogOutputConsole is SetLogOutput's human-readable counterpart, for
// local development.
func SetLogOutputConsole(w io.Writer) {
	Logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
}

func init() {
	if os.Getenv("HIVE_DEBUG") != "" {
		SetLogOutputConsole(os.Stderr)
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
