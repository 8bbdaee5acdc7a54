// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	xglog "github.com/ManuGH/vodplay/internal/log"
	"github.com/ManuGH/vodplay/internal/procgroup"
)

const (
	defaultStopGrace  = 2 * time.Second
	defaultIPCTimeout = time.Second
)

// Process is a started external player.
type Process interface {
	// Wait blocks until the process exits. It may be called more than once.
	Wait() error
	// Stop terminates the process and its children.
	Stop(grace time.Duration) error
}

// Runner starts external player processes.
type Runner interface {
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// ExecRunner starts processes in their own process group.
type ExecRunner struct{}

func (ExecRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(name, args...)
	procgroup.Set(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{}), waitCh: make(chan error, 1)}
	go func() {
		err := cmd.Wait()
		p.err = err
		close(p.done)
		p.waitCh <- err
	}()
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	done   chan struct{}
	err    error
	waitCh chan error

	stopOnce sync.Once
}

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}

func (p *execProcess) Stop(grace time.Duration) error {
	p.stopOnce.Do(func() {
		_ = procgroup.Terminate(p.cmd, p.waitCh, grace)
	})
	<-p.done
	return nil
}

// ProcessEngine plays sources in an external mpv-compatible player and talks
// to it over its JSON IPC socket. It serves as both Engine and Surface.
type ProcessEngine struct {
	Runner    Runner
	Command   string
	Args      []string
	IPCDir    string
	StopGrace time.Duration
}

func (e *ProcessEngine) Open(ctx context.Context, src string, opts Options) (Instance, error) {
	return e.Attach(ctx, src, opts)
}

func (e *ProcessEngine) Attach(ctx context.Context, src string, opts Options) (Instance, error) {
	if src == "" {
		return nil, errors.New("empty source")
	}
	runner := e.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	command := e.Command
	if command == "" {
		command = "mpv"
	}
	dir := e.IPCDir
	if dir == "" {
		dir = os.TempDir()
	}
	grace := e.StopGrace
	if grace <= 0 {
		grace = defaultStopGrace
	}

	socket := filepath.Join(dir, "vodplay-"+uuid.NewString()+".sock")
	args := append(mpvArgs(opts, socket), e.Args...)
	args = append(args, "--", src)

	proc, err := runner.Start(ctx, command, args...)
	if err != nil {
		return nil, err
	}

	inst := &processInstance{
		proc:     proc,
		socket:   socket,
		grace:    grace,
		events:   make(chan Event, 2),
		detached: make(chan struct{}),
	}
	go inst.watch()
	return inst, nil
}

func mpvArgs(opts Options, socket string) []string {
	args := []string{
		"--input-ipc-server=" + socket,
		"--keep-open=no",
		"--volume=" + strconv.Itoa(int(opts.Volume*100)),
	}
	if opts.PlaybackRate > 0 {
		args = append(args, "--speed="+strconv.FormatFloat(opts.PlaybackRate, 'f', -1, 64))
	}
	if !opts.Autoplay {
		args = append(args, "--pause")
	}
	if opts.Title != "" {
		args = append(args, "--force-media-title="+opts.Title)
	}
	if opts.PiP || opts.MiniPlayer {
		args = append(args, "--ontop")
	}
	return args
}

type processInstance struct {
	proc     Process
	socket   string
	grace    time.Duration
	events   chan Event
	detached chan struct{}

	mu      sync.Mutex
	stopped bool
}

func (i *processInstance) Events() <-chan Event      { return i.events }
func (i *processInstance) Detached() <-chan struct{} { return i.detached }

// watch turns the process exit into events. A clean exit is a full
// play-through; anything else after a stop we did not request is a failure.
func (i *processInstance) watch() {
	err := i.proc.Wait()
	_ = os.Remove(i.socket)

	i.mu.Lock()
	stopped := i.stopped
	i.mu.Unlock()

	if !stopped {
		if err == nil {
			i.events <- Event{Kind: EventComplete}
			i.events <- Event{Kind: EventEnded}
		} else {
			i.events <- Event{Kind: EventError, Err: fmt.Errorf("player exited: %w", err)}
		}
	}
	close(i.events)
	close(i.detached)
}

func (i *processInstance) SetPlaybackRate(rate float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultIPCTimeout)
	defer cancel()
	return ipcCommand(ctx, i.socket, "set_property", "speed", rate)
}

func (i *processInstance) Close() error {
	i.mu.Lock()
	i.stopped = true
	i.mu.Unlock()
	return i.proc.Stop(i.grace)
}

type ipcRequest struct {
	Command []any `json:"command"`
}

type ipcResponse struct {
	Error string `json:"error"`
}

func ipcCommand(ctx context.Context, socket string, args ...any) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return fmt.Errorf("dial player ipc: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	payload, err := json.Marshal(ipcRequest{Command: args})
	if err != nil {
		return err
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write player ipc: %w", err)
	}

	// The player may interleave async event lines before the reply.
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var resp ipcResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil || resp.Error == "" {
			continue
		}
		if resp.Error != "success" {
			return fmt.Errorf("player ipc: %s", resp.Error)
		}
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read player ipc: %w", err)
	}
	logger := xglog.WithComponent("player")
	logger.Debug().Str("socket", socket).Msg("player ipc closed without reply")
	return errors.New("player ipc: no reply")
}
