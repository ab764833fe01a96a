// Package procman tracks background viewer daemons through per-port pid
// files and manages their lifecycle.
package procman

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	ps "github.com/mitchellh/go-ps"
)

const pidFilePrefix = "fileserver."

// Manager resolves the pid directory once and operates on the pid files
// in it. fallback is the served directory, used when no standard location
// is writable.
type Manager struct {
	pidDir string
}

// New picks the first writable pid directory: user cache dir, user home
// data dir, the os temp dir, then the fallback directory.
func New(fallback string) *Manager {
	return &Manager{pidDir: pidDirectory(fallback)}
}

// PidDir returns the resolved pid directory.
func (m *Manager) PidDir() string { return m.pidDir }

func pidDirectory(fallback string) string {
	var candidates []string
	if cache, err := os.UserCacheDir(); err == nil {
		candidates = append(candidates, filepath.Join(cache, "mdview", "pids"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".local", "share", "mdview", "pids"))
	}
	candidates = append(candidates, filepath.Join(os.TempDir(), "mdview-fileserver"), fallback)

	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		probe := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(probe, nil, 0o644); err != nil {
			continue
		}
		os.Remove(probe)
		return dir
	}
	return fallback
}

// FindAvailablePort returns the first bindable port at or above start,
// scanning up to maxAttempts ports.
func FindAvailablePort(start, maxAttempts int) (int, error) {
	for port := start; port < start+maxAttempts; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in %d-%d", start, start+maxAttempts-1)
}

// processAlive reports whether the pid belongs to a live process.
func processAlive(pid int) bool {
	p, err := ps.FindProcess(pid)
	return err == nil && p != nil
}

func (m *Manager) pidFile(port int) string {
	return filepath.Join(m.pidDir, fmt.Sprintf("%s%d.pid", pidFilePrefix, port))
}

func (m *Manager) pidFiles() ([]string, error) {
	return filepath.Glob(filepath.Join(m.pidDir, pidFilePrefix+"*.pid"))
}

func readPidFile(path string) (pid, port int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pid file %s: %w", filepath.Base(path), err)
	}
	// fileserver.<port>.pid
	name := strings.TrimSuffix(filepath.Base(path), ".pid")
	port, err = strconv.Atoi(strings.TrimPrefix(name, pidFilePrefix))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid pid file name %s: %w", filepath.Base(path), err)
	}
	return pid, port, nil
}

// LaunchResult describes a successfully started background daemon.
type LaunchResult struct {
	Port int
	PID  int
	URL  string
}

// LaunchOptions configures Launch.
type LaunchOptions struct {
	Dir  string // directory to serve
	Host string
	Port int // requested port; the next free one is used when taken
}

// Launch starts the daemon in the background by re-executing the current
// binary with the serve command, writes the pid file, and verifies the
// process survived startup. A live viewer already owning the port is an
// error, not a takeover.
func (m *Manager) Launch(opts LaunchOptions) (*LaunchResult, error) {
	port, err := FindAvailablePort(opts.Port, 100)
	if err != nil {
		return nil, err
	}

	pidFile := m.pidFile(port)
	if pid, _, err := readPidFile(pidFile); err == nil {
		if processAlive(pid) {
			return nil, fmt.Errorf("viewer already running on port %d (pid %d)", port, pid)
		}
		os.Remove(pidFile) // stale
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving executable: %w", err)
	}

	cmd := exec.Command(exe, "serve",
		"--dir", opts.Dir,
		"--host", opts.Host,
		"--port", strconv.Itoa(port),
	)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = detachAttr()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting daemon: %w", err)
	}

	pid := cmd.Process.Pid
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		cmd.Process.Kill()
		return nil, fmt.Errorf("writing pid file: %w", err)
	}
	go cmd.Wait() // reap on exit

	// Give the daemon a moment, then make sure it did not die on startup.
	time.Sleep(2 * time.Second)
	if !processAlive(pid) {
		os.Remove(pidFile)
		return nil, fmt.Errorf("daemon exited during startup; run 'mdview serve' in the foreground to see why")
	}

	return &LaunchResult{
		Port: port,
		PID:  pid,
		URL:  fmt.Sprintf("http://%s:%d", opts.Host, port),
	}, nil
}

// Viewer is one live daemon found by Status.
type Viewer struct {
	PID  int
	Port int
}

// Status enumerates pid files, removes stale ones, and reports the live
// viewers. The number of stale files cleaned is returned alongside.
func (m *Manager) Status() (running []Viewer, cleaned int, err error) {
	files, err := m.pidFiles()
	if err != nil {
		return nil, 0, err
	}
	for _, f := range files {
		pid, port, err := readPidFile(f)
		if err != nil || !processAlive(pid) {
			os.Remove(f)
			cleaned++
			continue
		}
		running = append(running, Viewer{PID: pid, Port: port})
	}
	return running, cleaned, nil
}

// Kill stops the viewer on the given port, or every viewer when port is
// zero. Each process gets SIGTERM, a grace period, then SIGKILL if it is
// still alive. Pid files are removed regardless.
func (m *Manager) Kill(port int) (killed int, err error) {
	var files []string
	if port > 0 {
		files = []string{m.pidFile(port)}
	} else {
		files, err = m.pidFiles()
		if err != nil {
			return 0, err
		}
	}

	for _, f := range files {
		pid, _, rerr := readPidFile(f)
		if rerr != nil {
			if os.IsNotExist(rerr) {
				continue
			}
			os.Remove(f)
			continue
		}
		if terminate(pid) {
			killed++
		}
		os.Remove(f)
	}
	return killed, nil
}

func terminate(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return false
	}
	for i := 0; i < 10; i++ {
		time.Sleep(100 * time.Millisecond)
		if !processAlive(pid) {
			return true
		}
	}
	proc.Kill()
	time.Sleep(500 * time.Millisecond)
	return true
}
