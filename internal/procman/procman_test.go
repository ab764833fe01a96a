package procman

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestPidDirectoryFallsBackWhenNeeded(t *testing.T) {
	fallback := t.TempDir()
	m := New(fallback)
	if m.PidDir() == "" {
		t.Fatal("no pid directory resolved")
	}
	// The resolved directory must be writable.
	probe := filepath.Join(m.PidDir(), "probe")
	if err := os.WriteFile(probe, []byte("x"), 0o644); err != nil {
		t.Fatalf("resolved pid dir not writable: %v", err)
	}
	os.Remove(probe)
}

func TestFindAvailablePortSkipsTakenPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	taken := l.Addr().(*net.TCPAddr).Port

	port, err := FindAvailablePort(taken, 100)
	if err != nil {
		t.Fatalf("FindAvailablePort: %v", err)
	}
	if port == taken {
		t.Errorf("returned the taken port %d", taken)
	}
	if port < taken || port >= taken+100 {
		t.Errorf("port %d outside scan range starting at %d", port, taken)
	}
}

func TestReadPidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fileserver.4444.pid")
	if err := os.WriteFile(path, []byte(" 1234 \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	pid, port, err := readPidFile(path)
	if err != nil {
		t.Fatalf("readPidFile: %v", err)
	}
	if pid != 1234 || port != 4444 {
		t.Errorf("got pid %d port %d, want 1234 4444", pid, port)
	}
}

func TestReadPidFileRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fileserver.4444.pid")
	if err := os.WriteFile(path, []byte("not a pid"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := readPidFile(path); err == nil {
		t.Error("garbage pid file accepted")
	}
}

func TestStatusCleansStaleFiles(t *testing.T) {
	m := &Manager{pidDir: t.TempDir()}

	// A live entry: our own pid is certainly running.
	self := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(m.pidFile(5001), []byte(self), 0o644); err != nil {
		t.Fatalf("write live pid file: %v", err)
	}
	// A stale entry: pids near the max are effectively never allocated.
	if err := os.WriteFile(m.pidFile(5002), []byte("4194303"), 0o644); err != nil {
		t.Fatalf("write stale pid file: %v", err)
	}

	running, cleaned, err := m.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if cleaned != 1 {
		t.Errorf("cleaned %d stale files, want 1", cleaned)
	}
	if len(running) != 1 || running[0].Port != 5001 {
		t.Fatalf("running = %v, want one viewer on port 5001", running)
	}
	if _, err := os.Stat(m.pidFile(5002)); !os.IsNotExist(err) {
		t.Error("stale pid file not removed")
	}
}

func TestKillRemovesPidFilesForDeadProcesses(t *testing.T) {
	m := &Manager{pidDir: t.TempDir()}
	if err := os.WriteFile(m.pidFile(5003), []byte("4194303"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	killed, err := m.Kill(5003)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if killed != 0 {
		t.Errorf("killed %d, want 0 for an already dead process", killed)
	}
	if _, err := os.Stat(m.pidFile(5003)); !os.IsNotExist(err) {
		t.Error("pid file survived Kill")
	}
}

func TestKillMissingPort(t *testing.T) {
	m := &Manager{pidDir: t.TempDir()}
	killed, err := m.Kill(5999)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if killed != 0 {
		t.Errorf("killed %d viewers without pid files", killed)
	}
}
