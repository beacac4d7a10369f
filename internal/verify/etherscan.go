// Package verify implements post-deployment contract verification against
// Etherscan-compatible explorer APIs: bytecode checks, source submission,
// and the asynchronous status polling protocol.
package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/libersoft-org/smart-contracts/internal/observability/metrics"
)

// ErrNotIndexed is returned by Submit while the explorer has not yet
// indexed the deployed contract. The orchestrator retries this case with
// backoff; any other submission error is terminal.
var ErrNotIndexed = errors.New("explorer has not located the contract code yet")

// ExplorerStatus is the outcome of a single poll cycle.
type ExplorerStatus int

const (
	PollPending ExplorerStatus = iota
	PollVerified
	PollFailed
)

// SubmitRequest carries everything the explorer needs to recompile and
// match the deployed contract.
type SubmitRequest struct {
	ContractAddress  string
	ChainID          int
	StandardJSON     []byte
	ContractName     string // fully qualified: path/Contract.sol:Contract
	CompilerVersion  string // long form: v0.8.20+commit.a1b2c3d4
	OptimizationUsed bool
	Runs             int
	ConstructorArgs  string // hex, no 0x prefix
	LicenseType      int
}

// Explorer is the verification API channel the orchestrator drives. A nil
// Explorer means no API key is configured for the chain and verification is
// skipped.
type Explorer interface {
	Submit(ctx context.Context, req SubmitRequest) (guid string, err error)
	CheckStatus(ctx context.Context, guid string) (ExplorerStatus, string, error)
}

// EtherscanClient talks to an Etherscan-compatible verification API.
// Requests are rate limited: the free tier rejects bursts above 5 req/s.
type EtherscanClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewEtherscanClient creates a client for one explorer endpoint.
func NewEtherscanClient(baseURL, apiKey string, logger *slog.Logger) *EtherscanClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &EtherscanClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
		logger:     logger,
	}
}

// apiResponse is the explorer's JSON envelope: status "1" means success,
// result carries a GUID, a human-readable message, or "Pending in queue".
type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Submit posts the standard JSON input for verification and returns the
// job GUID on acceptance.
func (c *EtherscanClient) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	form := url.Values{}
	form.Set("apikey", c.apiKey)
	form.Set("module", "contract")
	form.Set("action", "verifysourcecode")
	form.Set("chainid", strconv.Itoa(req.ChainID))
	form.Set("contractaddress", req.ContractAddress)
	form.Set("codeformat", "solidity-standard-json-input")
	form.Set("sourceCode", string(req.StandardJSON))
	form.Set("contractname", req.ContractName)
	form.Set("compilerversion", req.CompilerVersion)
	if req.OptimizationUsed {
		form.Set("optimizationUsed", "1")
	} else {
		form.Set("optimizationUsed", "0")
	}
	form.Set("runs", strconv.Itoa(req.Runs))
	// The parameter name is misspelled in the Etherscan API itself.
	form.Set("constructorArguements", req.ConstructorArgs)
	form.Set("licenseType", strconv.Itoa(req.LicenseType))

	resp, err := c.do(ctx, http.MethodPost, form)
	if err != nil {
		metrics.ExplorerRequest("verifysourcecode", "error")
		return "", err
	}

	if resp.Status == "1" {
		metrics.ExplorerRequest("verifysourcecode", "ok")
		return resp.Result, nil
	}

	metrics.ExplorerRequest("verifysourcecode", "rejected")
	if strings.Contains(resp.Result, "Unable to locate ContractCode") {
		return "", fmt.Errorf("%w: %s", ErrNotIndexed, resp.Result)
	}
	return "", fmt.Errorf("verification submission rejected: %s", submitMessage(resp))
}

// CheckStatus polls the verification job status for a GUID.
func (c *EtherscanClient) CheckStatus(ctx context.Context, guid string) (ExplorerStatus, string, error) {
	form := url.Values{}
	form.Set("apikey", c.apiKey)
	form.Set("module", "contract")
	form.Set("action", "checkverifystatus")
	form.Set("guid", guid)

	resp, err := c.do(ctx, http.MethodGet, form)
	if err != nil {
		metrics.ExplorerRequest("checkverifystatus", "error")
		return PollFailed, "", err
	}
	metrics.ExplorerRequest("checkverifystatus", "ok")

	if resp.Status == "1" {
		return PollVerified, resp.Result, nil
	}
	if strings.Contains(resp.Result, "Pending") {
		return PollPending, resp.Result, nil
	}
	return PollFailed, submitMessage(resp), nil
}

func (c *EtherscanClient) do(ctx context.Context, method string, form url.Values) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+"?"+form.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL, strings.NewReader(form.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("building explorer request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading explorer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing explorer response: %w", err)
	}

	c.logger.Debug("explorer response",
		"action", form.Get("action"), "status", parsed.Status, "result", parsed.Result)
	return &parsed, nil
}

func submitMessage(resp *apiResponse) string {
	if resp.Result != "" {
		return resp.Result
	}
	return resp.Message
}
