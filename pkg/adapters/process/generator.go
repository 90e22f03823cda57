package process

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/fable/internal/logging"
)

// DefaultWaitDelay bounds how long a cancelled process may take to exit
// after the interrupt before it is killed.
const DefaultWaitDelay = 2 * time.Second

// Generator implements ports.Generator by running a local command. The prompt
// is written to the command's stdin and its stdout is returned.
type Generator struct {
	command   string
	args      []string
	env       map[string]string
	baseDir   string
	timeout   time.Duration
	waitDelay time.Duration
	logger    *slog.Logger
}

// Option configures the generator.
type Option func(*Generator)

// WithEnv adds environment variables for the process.
func WithEnv(env map[string]string) Option {
	return func(g *Generator) {
		for k, v := range env {
			g.env[k] = v
		}
	}
}

// WithBaseDir sets the working directory for the process.
func WithBaseDir(dir string) Option {
	return func(g *Generator) {
		g.baseDir = dir
	}
}

// WithTimeout bounds every Generate call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithWaitDelay sets the grace period between interrupt and kill.
func WithWaitDelay(d time.Duration) Option {
	return func(g *Generator) {
		g.waitDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator creates a generator for command and its fixed args.
func NewGenerator(command string, args []string, opts ...Option) *Generator {
	g := &Generator{
		command:   command,
		args:      args,
		env:       make(map[string]string),
		waitDelay: DefaultWaitDelay,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromConfig creates a generator from a loaded configuration entry.
func FromConfig(cfg GeneratorConfig, opts ...Option) (*Generator, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("generator %q has no command", cfg.Name)
	}
	base := []Option{WithEnv(cfg.Environment)}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("generator %q: invalid timeout: %w", cfg.Name, err)
		}
		base = append(base, WithTimeout(d))
	}
	return NewGenerator(cfg.Command, cfg.Args, append(base, opts...)...), nil
}

// Generate runs the command once.
// Arguments are never built from the prompt; it only travels through stdin.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, g.command, g.args...)
	cmd.Dir = g.baseDir
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = g.waitDelay
	if runtime.GOOS != "windows" {
		cmd.Cancel = func() error {
			return cmd.Process.Signal(os.Interrupt)
		}
	}

	env := []string{"FABLE_PROMPT_BYTES=" + strconv.Itoa(len(prompt))}
	for k, v := range g.env {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	g.logger.Debug("generator process finished",
		"command", g.command,
		"duration", time.Since(start),
		"stdout_bytes", stdout.Len())

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("generator %s interrupted: %w", g.command, ctxErr)
		}
		return "", fmt.Errorf("generator %s failed: %w (stderr: %s)", g.command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
