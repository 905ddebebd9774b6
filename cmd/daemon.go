package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/stakeledger/internal/cli"
	"github.com/theirongolddev/stakeledger/internal/config"
	"github.com/theirongolddev/stakeledger/internal/daemon"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background ledger status service with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", "", "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", "", "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonSettings merges flags over the [daemon] config section.
func daemonSettings() daemon.Config {
	dc := appCfg.Daemon
	cfg := daemon.Config{
		DBPath:       dbPath(),
		Addr:         dc.Addr,
		Interval:     time.Duration(dc.IntervalSec) * time.Second,
		EventsBuffer: dc.EventsBuffer,
	}
	if flagDaemonAddr != "" {
		cfg.Addr = flagDaemonAddr
	}
	if flagDaemonInterval > 0 {
		cfg.Interval = flagDaemonInterval
	}
	if flagDaemonEventsBuffer > 0 {
		cfg.EventsBuffer = flagDaemonEventsBuffer
	}
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultConfig().Daemon.Addr
	}
	return cfg
}

func pidFile() string {
	if flagDaemonPIDFile != "" {
		return flagDaemonPIDFile
	}
	return filepath.Join(config.DataDir(), "stakeledgerd.pid")
}

func logFile() string {
	if flagDaemonLogFile != "" {
		return flagDaemonLogFile
	}
	return filepath.Join(config.DataDir(), "stakeledgerd.log")
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonDetach {
		return startDaemonDetached(cmd)
	}

	return runDaemonForeground(cmd)
}

func startDaemonDetached(cmd *cobra.Command) error {
	pidPath, logPath := pidFile(), logFile()
	if err := ensureDaemonNotRunning(pidPath); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(pidPath), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Stdin = nil
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "  Started daemon (pid %d)\n", child.Process.Pid)
	_, _ = fmt.Fprintf(out, "  PID file: %s\n", pidPath)
	_, _ = fmt.Fprintf(out, "  API: http://%s/v1/status\n", daemonSettings().Addr)
	_, _ = fmt.Fprintf(out, "  Log: %s\n", logPath)
	return nil
}

func runDaemonForeground(cmd *cobra.Command) error {
	pidPath := pidFile()
	if err := ensureDaemonNotRunning(pidPath); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(pidPath), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	l, closeFn, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	pid := os.Getpid()
	if err := writePID(pidPath, pid); err != nil {
		return err
	}
	defer func() { _ = os.Remove(pidPath) }()

	cfg := daemonSettings()
	state := daemonRuntimeState{
		PID:       pid,
		Addr:      cfg.Addr,
		StartedAt: time.Now(),
		DBPath:    cfg.DBPath,
	}
	_ = writeState(statePath(pidPath), state)
	defer func() { _ = os.Remove(statePath(pidPath)) }()

	svc := daemon.New(l, cfg, daemon.WithLogger(slog.Default()))

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "  stakeledger daemon listening on http://%s\n", cfg.Addr)
	_, _ = fmt.Fprintf(out, "  Polling every %s from %s\n", cfg.Interval, cfg.DBPath)
	_, _ = fmt.Fprintf(out, "  Stop with: stakeledger daemon stop --pid-file %s\n", pidPath)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	pidPath := pidFile()

	pid, err := readPID(pidPath)
	if err != nil {
		_, _ = fmt.Fprintf(out, "  Daemon: not running (pid file not found)\n")
		return nil
	}

	if !processAlive(pid) {
		_, _ = fmt.Fprintf(out, "  Daemon: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := daemonSettings().Addr
	if st, err := readState(statePath(pidPath)); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	_, _ = fmt.Fprintf(out, "  Daemon PID: %d\n", pid)
	_, _ = fmt.Fprintf(out, "  Address: http://%s\n", addr)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return fmt.Errorf("building status request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		_, _ = fmt.Fprintf(out, "  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = fmt.Fprintf(out, "  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		_, _ = fmt.Fprintf(out, "  API status: malformed response (%v)\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		_, _ = fmt.Fprintf(out, "  Last poll: pending\n")
	} else {
		_, _ = fmt.Fprintf(out, "  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	sum := st.Summary
	m := cli.Money{Symbol: sum.Currency}
	_, _ = fmt.Fprintf(out, "  Poll count: %d\n", st.PollCount)
	_, _ = fmt.Fprintf(out, "  Ledger: %s\n", st.DBPath)
	_, _ = fmt.Fprintf(out, "  Venues: %d  Entries: %d\n", sum.Venues, sum.Entries)
	_, _ = fmt.Fprintf(out, "  Week %s: spent %s of %s\n", sum.WeekKey, m.Format(sum.WeekSpent), m.Limit(sum.WeekBudget))
	_, _ = fmt.Fprintf(out, "  Month %s: spent %s of %s\n", sum.MonthKey, m.Format(sum.MonthSpent), m.Limit(sum.MonthBudget))
	if len(sum.VenuesReached) > 0 {
		_, _ = fmt.Fprintf(out, "  Limits reached: %s\n", strings.Join(sum.VenuesReached, ", "))
	}
	if st.LastError != "" {
		_, _ = fmt.Fprintf(out, "  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(cmd *cobra.Command, _ []string) error {
	pidPath := pidFile()
	pid, err := readPID(pidPath)
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(pidPath)
			_ = os.Remove(statePath(pidPath))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Stopped daemon (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("daemon (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureDaemonNotRunning(pidPath string) error {
	pid, err := readPID(pidPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	_ = os.Remove(pidPath)
	_ = os.Remove(statePath(pidPath))
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	//nolint:gosec // daemon pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func statePath(pidPath string) string {
	return pidPath + ".json"
}

func writeState(path string, st daemonRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readState(path string) (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // daemon state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, err
	}
	return st, nil
}
