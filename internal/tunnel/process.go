package tunnel

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// spawn starts binary with the config path as its only argument. The child
// gets its own process group so terminal signals aimed at the supervisor
// do not reach it; Stop is the only way it is told to exit.
func spawn(binary, configPath string, stdout, stderr io.Writer) (*exec.Cmd, error) {
	cmd := exec.Command(binary, configPath)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// reap makes exactly one non-blocking wait4 call for pid.
func reap(pid int) (ExitStatus, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return ExitStatus{}, err
		}
		if wpid == 0 {
			return ExitStatus{}, nil
		}
		return exitStatusFrom(ws), nil
	}
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// ReadPIDFile parses a pid file as written by stunnel.
func ReadPIDFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s: invalid content %q", path, strings.TrimSpace(string(raw)))
	}
	return pid, nil
}

// ProcessInfo is a point-in-time view of an OS process.
type ProcessInfo struct {
	PID       int       `json:"pid"`
	Name      string    `json:"name"`
	Cmdline   string    `json:"cmdline"`
	Status    string    `json:"status"`
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"started_at"`
}

// Inspect looks pid up in the process table.
func Inspect(pid int) (ProcessInfo, error) {
	info := ProcessInfo{PID: pid}

	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return info, fmt.Errorf("process %d: %w", pid, err)
	}

	info.Running, _ = p.IsRunning()
	info.Name, _ = p.Name()
	info.Cmdline, _ = p.Cmdline()
	if st, err := p.Status(); err == nil {
		info.Status = strings.Join(st, ",")
	}
	if ms, err := p.CreateTime(); err == nil {
		info.StartedAt = time.UnixMilli(ms)
	}
	return info, nil
}
