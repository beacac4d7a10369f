package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/libersoft-org/smart-contracts/internal/artifact"
	"github.com/libersoft-org/smart-contracts/internal/evm"
	"github.com/libersoft-org/smart-contracts/internal/observability/metrics"
	"github.com/libersoft-org/smart-contracts/internal/validation"
)

// Timing holds the protocol intervals and attempt ceilings. They are
// configuration so test suites can shrink them.
type Timing struct {
	// GracePeriod is waited before the first submission so the explorer
	// can index the new contract.
	GracePeriod time.Duration
	// RetryInterval is the backoff between resubmissions while the
	// explorer has not indexed the contract yet.
	RetryInterval time.Duration
	// PollInterval is the delay between status polls.
	PollInterval time.Duration
	// SubmitAttempts bounds submissions, including the first.
	SubmitAttempts int
	// PollAttempts bounds status polls.
	PollAttempts int
}

// DefaultTiming returns the production intervals.
func DefaultTiming() Timing {
	return Timing{
		GracePeriod:    15 * time.Second,
		RetryInterval:  10 * time.Second,
		PollInterval:   5 * time.Second,
		SubmitAttempts: 3,
		PollAttempts:   10,
	}
}

// ChainReader is the read-only chain capability the orchestrator needs.
// *chain.Client satisfies it.
type ChainReader interface {
	CodeAt(ctx context.Context, address common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Check names in Result.Checks.
const (
	CheckExistence     = "existence"
	CheckFunctionality = "functionality"
	CheckBytecode      = "bytecode"
	CheckCompiler      = "compiler"
)

// CheckStatus grades a single check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckWarning CheckStatus = "warning"
	CheckSkipped CheckStatus = "skipped"
)

// Check is one graded finding with an explanation.
type Check struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// Summary counts check outcomes.
type Summary struct {
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

// Request is the verification input assembled by the deployment workflow.
type Request struct {
	ContractAddress common.Address
	ChainID         int
	Token           evm.TokenConfig
	Artifact        *artifact.Artifact
	// ContractsDir is the root the artifact's source paths resolve against.
	ContractsDir string
	// LicenseType is the explorer license code (e.g. 3 = MIT).
	LicenseType int
}

// Result is the structured outcome of one verification run.
type Result struct {
	Timestamp       time.Time              `json:"timestamp"`
	ContractAddress string                 `json:"contractAddress"`
	ChainID         int                    `json:"chainId"`
	Success         bool                   `json:"success"`
	Job             Job                    `json:"job"`
	Analysis        evm.Report             `json:"analysis"`
	Functionality   evm.FunctionalityCheck `json:"functionality"`
	Checks          map[string]Check       `json:"checks"`
	Summary         Summary                `json:"summary"`
}

// Orchestrator composes the decoder, analyzer, reconstructor, and encoder,
// and drives the explorer submit/poll state machine. Each Run owns its job
// and result; nothing is shared between runs.
type Orchestrator struct {
	chain    ChainReader
	explorer Explorer
	timing   Timing
	logger   *slog.Logger
	out      io.Writer
}

// NewOrchestrator wires a verification orchestrator. A nil explorer means
// no API key is configured and the submission phase is skipped.
func NewOrchestrator(chain ChainReader, explorer Explorer, timing Timing, logger *slog.Logger, out io.Writer) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	if timing.SubmitAttempts <= 0 {
		timing.SubmitAttempts = 1
	}
	if timing.PollAttempts <= 0 {
		timing.PollAttempts = 1
	}
	return &Orchestrator{chain: chain, explorer: explorer, timing: timing, logger: logger, out: out}
}

// Run executes the full verification flow. Only the artifact ABI parse and
// the compilation-unit reconstruction abort early; every other stage
// records its failure into the result and the run continues.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Artifact == nil {
		return nil, errors.New("verification requires a compiled artifact")
	}

	stdInput, err := artifact.BuildStandardJSON(req.Artifact, req.ContractsDir)
	if err != nil {
		return nil, fmt.Errorf("reconstructing compilation unit: %w", err)
	}
	encodedInput, err := stdInput.Encode()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Timestamp:       time.Now().UTC(),
		ContractAddress: req.ContractAddress.Hex(),
		ChainID:         req.ChainID,
		Checks:          make(map[string]Check),
		Job: Job{
			ContractAddress:   req.ContractAddress.Hex(),
			ChainID:           req.ChainID,
			Status:            StatusSkipped,
			AttemptsRemaining: o.timing.SubmitAttempts,
		},
	}

	bytecodeHex := o.checkExistence(ctx, req, result)
	o.checkBytecode(req, result, bytecodeHex)
	o.checkFunctionality(ctx, req, result)

	ctorArgs := o.encodeConstructorArgs(req)

	if o.explorer == nil {
		o.printf("⏭️  Verification skipped: no explorer API key configured for chain %d\n", req.ChainID)
	} else if bytecodeHex == "" {
		result.Job.Status = StatusFailed
		result.Job.Message = "no deployed bytecode to verify"
	} else {
		o.submitAndPoll(ctx, req, result, encodedInput, ctorArgs)
	}

	o.summarize(result)
	metrics.VerificationResult(string(result.Job.Status))
	return result, nil
}

// checkExistence fetches the deployed bytecode and grades the existence
// check. Returns the bytecode as hex, or "" when unavailable.
func (o *Orchestrator) checkExistence(ctx context.Context, req Request, result *Result) string {
	code, err := o.chain.CodeAt(ctx, req.ContractAddress, nil)
	if err != nil {
		result.Checks[CheckExistence] = Check{CheckFailed, fmt.Sprintf("fetching deployed bytecode: %v", err)}
		o.printf("❌ Could not fetch bytecode: %v\n", err)
		return ""
	}
	if len(code) == 0 {
		result.Checks[CheckExistence] = Check{CheckFailed, "no code deployed at address"}
		o.printf("❌ No code at %s\n", req.ContractAddress.Hex())
		return ""
	}

	result.Checks[CheckExistence] = Check{CheckPassed, fmt.Sprintf("%d bytes of code deployed", len(code))}
	o.printf("✅ Contract exists (%d bytes)\n", len(code))
	return hex.EncodeToString(code)
}

// checkBytecode runs the static analysis and grades the bytecode and
// compiler checks. Both are non-critical: mismatches downgrade to warnings.
func (o *Orchestrator) checkBytecode(req Request, result *Result, bytecodeHex string) {
	if bytecodeHex == "" {
		result.Checks[CheckBytecode] = Check{CheckSkipped, "no bytecode available"}
		result.Checks[CheckCompiler] = Check{CheckSkipped, "no bytecode available"}
		return
	}

	report := evm.Analyze(bytecodeHex, o.logger)
	result.Analysis = report

	if report.HasMetadata {
		result.Checks[CheckBytecode] = Check{CheckPassed, "compiler metadata decoded"}
		o.printf("✅ Metadata: compiler %s\n", report.CompilerVersion)
	} else {
		result.Checks[CheckBytecode] = Check{CheckWarning, "no compiler metadata in deployed bytecode"}
		o.printf("⚠️  No compiler metadata found\n")
	}
	for _, w := range report.Warnings {
		o.printf("⚠️  %s\n", w)
	}

	expected := ShortCompilerVersion(req.Artifact.Compiler.Version)
	switch {
	case report.CompilerVersion == "":
		result.Checks[CheckCompiler] = Check{CheckWarning, "deployed compiler version unknown"}
	case validation.CompareCompilerVersions(report.CompilerVersion, expected) == 0:
		result.Checks[CheckCompiler] = Check{CheckPassed, fmt.Sprintf("compiler %s matches artifact", expected)}
		o.printf("✅ Compiler version matches (%s)\n", expected)
	default:
		result.Checks[CheckCompiler] = Check{CheckWarning,
			fmt.Sprintf("deployed compiler %s differs from artifact %s", report.CompilerVersion, expected)}
		o.printf("⚠️  Compiler mismatch: deployed %s, artifact %s\n", report.CompilerVersion, expected)
	}
}

// checkFunctionality runs the four token reads and grades the result.
func (o *Orchestrator) checkFunctionality(ctx context.Context, req Request, result *Result) {
	fn := evm.CheckToken(ctx, o.chain, req.ContractAddress, req.Token)
	result.Functionality = fn

	switch {
	case !fn.Responsive:
		result.Checks[CheckFunctionality] = Check{CheckFailed, fmt.Sprintf("token reads failed: %s", fn.Error)}
		o.printf("❌ Token reads failed: %s\n", fn.Error)
	case fn.AllMatch:
		result.Checks[CheckFunctionality] = Check{CheckPassed, "name, symbol, decimals and total supply match"}
		o.printf("✅ Token configuration matches\n")
	default:
		result.Checks[CheckFunctionality] = Check{CheckFailed, describeMismatch(fn)}
		o.printf("❌ Token configuration mismatch: %s\n", describeMismatch(fn))
	}
}

func (o *Orchestrator) encodeConstructorArgs(req Request) string {
	parsedABI, err := req.Artifact.ParsedABI()
	if err != nil {
		o.logger.Warn("artifact ABI unparseable, submitting without constructor args", "err", err)
		return ""
	}
	return evm.EncodeConstructorArgs(parsedABI, req.Token, o.logger)
}

// submitAndPoll drives the explorer state machine:
// Submitting -> (Pending | retry | Failed) -> Polling ->
// (Verified | Failed | TimedOut). Transient transport failures become
// Failed; they never propagate.
func (o *Orchestrator) submitAndPoll(ctx context.Context, req Request, result *Result, stdJSON []byte, ctorArgs string) {
	job := &result.Job

	o.printf("⏳ Waiting %s for the explorer to index the contract...\n", o.timing.GracePeriod)
	if err := sleepCtx(ctx, o.timing.GracePeriod); err != nil {
		job.Status = StatusFailed
		job.Message = err.Error()
		return
	}

	submitReq := SubmitRequest{
		ContractAddress:  req.ContractAddress.Hex(),
		ChainID:          req.ChainID,
		StandardJSON:     stdJSON,
		ContractName:     req.Artifact.FullyQualifiedName(),
		CompilerVersion:  LongCompilerVersion(req.Artifact.Compiler.Version),
		OptimizationUsed: req.Artifact.Compiler.Optimizer.Enabled,
		Runs:             req.Artifact.Compiler.Optimizer.Runs,
		ConstructorArgs:  ctorArgs,
		LicenseType:      req.LicenseType,
	}

	for {
		job.AttemptsRemaining--
		metrics.VerificationSubmit()
		guid, err := o.explorer.Submit(ctx, submitReq)
		if err == nil {
			job.GUID = guid
			job.Status = StatusPending
			o.printf("📨 Submitted for verification (GUID %s)\n", guid)
			break
		}

		if !errors.Is(err, ErrNotIndexed) {
			job.Status = StatusFailed
			job.Message = err.Error()
			o.printf("❌ Submission failed: %v\n", err)
			return
		}
		if job.AttemptsRemaining <= 0 {
			job.Status = StatusFailed
			job.Message = err.Error()
			o.printf("❌ Explorer never located the contract: %v\n", err)
			return
		}

		o.printf("⏳ Contract not indexed yet, retrying in %s...\n", o.timing.RetryInterval)
		if err := sleepCtx(ctx, o.timing.RetryInterval); err != nil {
			job.Status = StatusFailed
			job.Message = err.Error()
			return
		}
	}

	job.Status = StatusInProgress
	for poll := 0; poll < o.timing.PollAttempts; poll++ {
		if err := sleepCtx(ctx, o.timing.PollInterval); err != nil {
			job.Status = StatusFailed
			job.Message = err.Error()
			return
		}

		status, message, err := o.explorer.CheckStatus(ctx, job.GUID)
		if err != nil {
			job.Status = StatusFailed
			job.Message = err.Error()
			o.printf("❌ Status poll failed: %v\n", err)
			return
		}

		switch status {
		case PollVerified:
			job.Status = StatusVerified
			job.Message = message
			o.printf("✅ Contract verified\n")
			return
		case PollFailed:
			job.Status = StatusFailed
			job.Message = message
			o.printf("❌ Verification failed: %s\n", message)
			return
		case PollPending:
			o.printf("⏳ Still pending (%d/%d)...\n", poll+1, o.timing.PollAttempts)
		}
	}

	job.Status = StatusTimedOut
	job.Message = "verification still pending after poll budget; check the explorer manually"
	o.printf("⏱️  Verification timed out while pending; it may still complete — check the explorer\n")
}

// summarize counts check outcomes and derives the overall verdict. Only
// the two critical checks (existence, functionality) decide success;
// bytecode and compiler findings are informational.
func (o *Orchestrator) summarize(result *Result) {
	for _, check := range result.Checks {
		switch check.Status {
		case CheckPassed:
			result.Summary.Passed++
		case CheckFailed:
			result.Summary.Failed++
		case CheckWarning:
			result.Summary.Warnings++
		}
	}

	result.Success = result.Checks[CheckExistence].Status == CheckPassed &&
		result.Checks[CheckFunctionality].Status == CheckPassed
}

func (o *Orchestrator) printf(format string, args ...any) {
	fmt.Fprintf(o.out, format, args...)
}

func describeMismatch(fn evm.FunctionalityCheck) string {
	var parts []string
	if !fn.Name.Matches {
		parts = append(parts, fmt.Sprintf("name %q != %q", fn.Name.Actual, fn.Name.Expected))
	}
	if !fn.Symbol.Matches {
		parts = append(parts, fmt.Sprintf("symbol %q != %q", fn.Symbol.Actual, fn.Symbol.Expected))
	}
	if !fn.Decimals.Matches {
		parts = append(parts, fmt.Sprintf("decimals %s != %s", fn.Decimals.Actual, fn.Decimals.Expected))
	}
	if !fn.TotalSupply.Matches {
		parts = append(parts, fmt.Sprintf("total supply %s != %s", fn.TotalSupply.Actual, fn.TotalSupply.Expected))
	}
	return strings.Join(parts, "; ")
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ShortCompilerVersion reduces a long solc version to its dotted triple:
// "v0.8.20+commit.a1b2c3d4" -> "0.8.20".
func ShortCompilerVersion(version string) string {
	v := strings.TrimPrefix(version, "v")
	if i := strings.IndexAny(v, "+-"); i >= 0 {
		v = v[:i]
	}
	return v
}

// LongCompilerVersion ensures the leading "v" the explorer API expects.
func LongCompilerVersion(version string) string {
	if version == "" || strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
