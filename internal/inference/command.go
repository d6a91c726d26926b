package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"sttbatch/internal/logging"
	"sttbatch/internal/services"
)

// Invocation is one run of the inference command.
type Invocation struct {
	Name  string
	Args  []string
	Env   []string
	Stdin []byte
}

// Runner executes an invocation and returns its standard output.
type Runner func(ctx context.Context, inv Invocation) ([]byte, error)

// CommandGenerator runs the configured inference command once per batch.
type CommandGenerator struct {
	cfg    Config
	run    Runner
	logger *slog.Logger
	vocab  atomic.Int64
}

// NewCommandGenerator creates a generator backed by an external command.
func NewCommandGenerator(cfg Config, logger *slog.Logger) *CommandGenerator {
	return &CommandGenerator{
		cfg:    cfg,
		run:    execRunner,
		logger: logging.NewComponentLogger(logger, "inference"),
	}
}

// WithRunner sets a custom command runner (for testing).
func (g *CommandGenerator) WithRunner(run Runner) {
	if run != nil {
		g.run = run
	}
}

// VocabSize returns the vocabulary size reported by the most recent batch.
func (g *CommandGenerator) VocabSize() int {
	return int(g.vocab.Load())
}

// Model returns the configured model name for logging.
func (g *CommandGenerator) Model() string {
	return g.cfg.Model
}

// Generate sends one batch to the inference command.
func (g *CommandGenerator) Generate(ctx context.Context, req Request) (Generation, error) {
	if strings.TrimSpace(g.cfg.Command) == "" {
		return Generation{}, services.Wrap(services.ErrConfiguration, "generate", "", "inference.command is empty", nil)
	}
	if len(req.AudioFilepaths) == 0 {
		return Generation{}, services.Wrap(services.ErrValidation, "generate", "", "empty batch", nil)
	}
	if req.Model == "" {
		req.Model = g.cfg.Model
	}
	if req.Device == "" {
		req.Device = g.cfg.Device
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return Generation{}, fmt.Errorf("encode inference request: %w", err)
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	inv := Invocation{
		Name:  g.cfg.Command,
		Args:  append([]string(nil), g.cfg.Args...),
		Env:   g.environment(),
		Stdin: payload,
	}
	logger := logging.WithContext(ctx, g.logger)
	logger.Debug("invoking inference command",
		logging.String("command", inv.Name),
		logging.Any("args", inv.Args),
		logging.Int("batch_size", len(req.AudioFilepaths)),
	)

	started := time.Now()
	output, err := g.run(ctx, inv)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Generation{}, services.Wrap(services.ErrTimeout, "generate", inv.Name, fmt.Sprintf("batch exceeded %s", g.cfg.Timeout), err)
		}
		if ctx.Err() != nil {
			return Generation{}, ctx.Err()
		}
		return Generation{}, services.Wrap(services.ErrExternalTool, "generate", inv.Name, "", err)
	}

	gen, err := DecodeGeneration(output)
	if err != nil {
		return Generation{}, services.Wrap(services.ErrExternalTool, "generate", inv.Name, "unreadable response", err)
	}
	if gen.VocabSize <= 0 {
		gen.VocabSize = g.VocabSize()
	} else {
		g.vocab.Store(int64(gen.VocabSize))
	}

	logger.Debug("inference batch complete",
		logging.Duration("elapsed", time.Since(started)),
		logging.Int("steps", gen.Steps()),
		logging.Int("vocab_size", gen.VocabSize),
	)
	return gen, nil
}

func (g *CommandGenerator) environment() []string {
	env := os.Environ()
	env = append(env,
		"LOCAL_RANK="+strconv.Itoa(g.cfg.LocalRank),
		"WORLD_SIZE="+strconv.Itoa(max(g.cfg.WorldSize, 1)),
	)
	if g.cfg.HFToken != "" {
		env = append(env, "HF_TOKEN="+g.cfg.HFToken)
	}
	return env
}

const stderrTailBytes = 2048

func execRunner(ctx context.Context, inv Invocation) ([]byte, error) {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...) //nolint:gosec
	cmd.Env = inv.Env
	cmd.Stdin = bytes.NewReader(inv.Stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		tail := stderr.Bytes()
		if len(tail) > stderrTailBytes {
			tail = tail[len(tail)-stderrTailBytes:]
		}
		return nil, fmt.Errorf("%s: %w: %s", inv.Name, err, strings.TrimSpace(string(tail)))
	}
	return stdout.Bytes(), nil
}
