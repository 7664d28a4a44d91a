package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"unpfs.dev/p9/dispatch"
	"unpfs.dev/p9/transport"
	"unpfs.dev/p9/unpfs"
)

var flags struct {
	networkAddress  string
	networkProtocol string
	mountPoint      string
	logPath         string
	debug           bool
}

var rootCmd = &cobra.Command{
	Use:   "p9srv",
	Short: "Serve a host directory as a 9P2000.L tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	fs := rootCmd.Flags()
	fs.StringVar(&flags.networkAddress, "network-address", "127.0.0.1:5640", "address to listen on")
	fs.StringVar(&flags.networkProtocol, "network-protocol", "tcp", "listener network (tcp, tcp4, tcp6, unix)")
	fs.StringVar(&flags.mountPoint, "mount-point", "", "host directory to serve (required)")
	fs.StringVar(&flags.logPath, "log-path", "", "file to write diagnostics to (default stderr)")
	fs.BoolVar(&flags.debug, "debug", false, "enable verbose diagnostics")

	// P9SRV_LOG is this server's equivalent of the original's RUST_LOG:
	// any non-empty value turns on the same verbose diagnostics as
	// --debug; the value itself is not interpreted as a level.
	viper.SetEnvPrefix("p9srv")
	_ = viper.BindEnv("log")
}

// Execute runs the root command and returns the process exit code:
// 0 on success, negative on any failure, matching spec.md §6 exactly.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return -1
	}
	return 0
}

func run() int {
	return Execute()
}

func serve() error {
	if flags.mountPoint == "" {
		return fmt.Errorf("p9srv: --mount-point is required")
	}
	mountPoint, err := filepath.Abs(flags.mountPoint)
	if err != nil {
		return fmt.Errorf("p9srv: resolving mount point: %w", err)
	}

	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	fs, err := unpfs.New(mountPoint, timeutil.RealClock())
	if err != nil {
		return fmt.Errorf("p9srv: %w", err)
	}

	srv := dispatch.NewServer(fs)
	srv.Logger = logger

	l, err := transport.Listen(flags.networkProtocol, flags.networkAddress)
	if err != nil {
		return fmt.Errorf("p9srv: listen: %w", err)
	}
	logger.Printf("p9srv: serving %s on %s/%s", mountPoint, flags.networkProtocol, flags.networkAddress)

	return srv.Serve(l)
}

// newLogger builds the Logger a Server logs through. --debug, or
// P9SRV_LOG set to any non-empty level name, turns on microsecond
// timestamps and file:line prefixes; otherwise diagnostics are terse.
func newLogger() (*log.Logger, func(), error) {
	out := os.Stderr
	closeFn := func() {}
	if flags.logPath != "" {
		f, err := os.OpenFile(flags.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("p9srv: opening log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

	flagBits := log.LstdFlags
	if flags.debug || viper.GetString("log") != "" {
		flagBits = log.LstdFlags | log.Lmicroseconds | log.Lshortfile
	}
	return log.New(out, "", flagBits), closeFn, nil
}
