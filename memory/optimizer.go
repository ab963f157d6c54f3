package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/engramlabs/engram-go-sdk/core"
)

// InstructionOptimizer maintains the single live instruction for an agent
// role and rewrites it from observed (trajectory, feedback) pairs.
//
// Each Optimize invocation performs exactly one commit: read the current
// instruction (seeding a default when absent), propose a candidate through
// the optimization capability, and put the candidate back under the same
// key, replacing the prior instruction. Naive append-forever growth is the
// failure mode this replaces.
type InstructionOptimizer struct {
	store      Store
	capability Optimizer
	log        *zap.Logger
}

// OptimizerOption configures an InstructionOptimizer.
type OptimizerOption func(*InstructionOptimizer)

// WithOptimizerLogger sets the optimizer's logger.
func WithOptimizerLogger(log *zap.Logger) OptimizerOption {
	return func(o *InstructionOptimizer) {
		if log != nil {
			o.log = log
		}
	}
}

// NewInstructionOptimizer creates an optimizer bound to a store. The
// capability may be nil, in which case every Optimize call commits the
// deterministic fallback transform.
func NewInstructionOptimizer(store Store, capability Optimizer, opts ...OptimizerOption) *InstructionOptimizer {
	o := &InstructionOptimizer{
		store:      store,
		capability: capability,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OptimizeResult reports what an Optimize call committed.
type OptimizeResult struct {
	// Instruction is the committed instruction text.
	Instruction string

	// Previous is the instruction that was replaced (the seeded default on
	// first use).
	Previous string

	// Seeded is true when no instruction existed for the role and the
	// caller-supplied default was stored first.
	Seeded bool

	// FellBack is true when the optimization capability failed or returned
	// unusable output and the deterministic transform was committed
	// instead.
	FellBack bool
}

// Current returns the live instruction for the role, seeding and storing
// defaultInstruction when none exists yet.
func (o *InstructionOptimizer) Current(ctx context.Context, role, defaultInstruction string) (string, error) {
	current, _, err := o.current(ctx, role, defaultInstruction)
	return current, err
}

// SystemPrompt renders the role's live instruction as a system prompt,
// seeding the default when absent.
func (o *InstructionOptimizer) SystemPrompt(ctx context.Context, role, defaultInstruction string) (string, error) {
	current, _, err := o.current(ctx, role, defaultInstruction)
	if err != nil {
		return "", err
	}
	return "Instructions: " + current, nil
}

// Optimize runs one read-propose-commit cycle for the role. It is total
// over capability failure: whether or not the capability succeeds, a usable
// next instruction is committed, and the result says which path produced
// it. Only store failures propagate as errors.
func (o *InstructionOptimizer) Optimize(ctx context.Context, role, defaultInstruction string, trajectories []core.Trajectory) (*OptimizeResult, error) {
	ns := Resolve(KindProcedural, role)

	current, seeded, err := o.current(ctx, role, defaultInstruction)
	if err != nil {
		return nil, err
	}

	candidate, fellBack := o.propose(ctx, current, trajectories)

	if err := o.commit(ctx, ns, role, candidate); err != nil {
		return nil, fmt.Errorf("commit instruction for role %q: %w", role, err)
	}

	o.log.Info("committed instruction",
		zap.String("role", role),
		zap.Bool("fell_back", fellBack),
		zap.Int("length", len(candidate)))
	return &OptimizeResult{
		Instruction: candidate,
		Previous:    current,
		Seeded:      seeded,
		FellBack:    fellBack,
	}, nil
}

func (o *InstructionOptimizer) current(ctx context.Context, role, defaultInstruction string) (string, bool, error) {
	ns := Resolve(KindProcedural, role)

	rec, err := o.store.Get(ctx, ns, role)
	if errors.Is(err, ErrNotFound) {
		if err := o.commit(ctx, ns, role, defaultInstruction); err != nil {
			return "", false, fmt.Errorf("seed instruction for role %q: %w", role, err)
		}
		o.log.Info("seeded default instruction", zap.String("role", role))
		return defaultInstruction, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read instruction for role %q: %w", role, err)
	}

	inst, ok := rec.Value.(Instruction)
	if !ok {
		return "", false, fmt.Errorf("record %s/%s is not an instruction", ns, role)
	}
	return inst.Prompt, false, nil
}

// propose asks the capability for a candidate, falling back to the
// deterministic transform on failure or unusable output.
func (o *InstructionOptimizer) propose(ctx context.Context, current string, trajectories []core.Trajectory) (string, bool) {
	if o.capability == nil {
		return fallbackInstruction(current, trajectories), true
	}

	candidate, err := o.capability.Optimize(ctx, current, trajectories)
	if err != nil {
		o.log.Warn("optimization capability failed, using deterministic fallback",
			zap.Error(fmt.Errorf("%w: %v", ErrOptimizationFailed, err)))
		return fallbackInstruction(current, trajectories), true
	}
	if strings.TrimSpace(candidate) == "" {
		o.log.Warn("optimization capability returned empty instruction, using deterministic fallback")
		return fallbackInstruction(current, trajectories), true
	}
	return candidate, false
}

// commit puts the instruction under the role key, replacing the prior one.
// When the embedding provider is down the instruction is stored unindexed:
// the role must never be left without a usable instruction.
func (o *InstructionOptimizer) commit(ctx context.Context, ns Namespace, role, instruction string) error {
	_, err := o.store.Put(ctx, ns, role, Instruction{Prompt: instruction})
	if errors.Is(err, ErrEmbeddingUnavailable) {
		o.log.Warn("embedding unavailable, storing instruction unindexed",
			zap.String("role", role))
		_, err = o.store.PutRaw(ctx, ns, role, Instruction{Prompt: instruction})
	}
	return err
}

// fallbackInstruction is the reproducible failure-mode transform: the
// current instruction followed by each trajectory's feedback, joined by
// single spaces.
func fallbackInstruction(current string, trajectories []core.Trajectory) string {
	parts := []string{current}
	for _, t := range trajectories {
		if fb := strings.TrimSpace(t.Feedback); fb != "" {
			parts = append(parts, fb)
		}
	}
	return strings.Join(parts, " ")
}
