package kubeconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/telekom/k8s-fleetcred/pkg/ratelimit"
	"github.com/telekom/k8s-fleetcred/pkg/registry"
)

// DefaultObtainTimeout bounds a single obtain invocation when no explicit
// timeout is configured.
const DefaultObtainTimeout = 60 * time.Second

// Runner executes per-entry obtain commands and returns their bundles by
// ownership. Each entry gets exactly one attempt per run; timeouts and
// non-zero exits are reported as obtain failures, never retried.
type Runner struct {
	logger  *zap.SugaredLogger
	limiter *ratelimit.Limiter
	timeout time.Duration
}

// NewRunner creates a runner. A nil limiter disables launch throttling; a
// zero timeout selects DefaultObtainTimeout.
func NewRunner(logger *zap.SugaredLogger, limiter *ratelimit.Limiter, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultObtainTimeout
	}
	return &Runner{logger: logger, limiter: limiter, timeout: timeout}
}

// Obtain runs the entry's argv with no stdin and parses stdout as the raw
// credential bundle. Stderr is diagnostic output: it is logged line-wise
// under the entry's anchor and never contaminates the parsed bundle.
func (r *Runner) Obtain(ctx context.Context, entry registry.Entry) (*clientcmdapi.Config, error) {
	argv, err := renderArgv(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to render obtain command: %w", err)
	}

	timeout, err := r.entryTimeout(entry)
	if err != nil {
		return nil, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("obtain launch canceled: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debugw("running obtain command", "anchor", entry.Anchor, "command", argv[0])
	start := time.Now()
	runErr := cmd.Run()
	r.logStderr(entry.Anchor, stderr.Bytes())

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("obtain command timed out after %s", timeout)
	}
	if runErr != nil {
		return nil, fmt.Errorf("obtain command failed: %w", runErr)
	}

	bundle, err := ParseBundle(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	r.logger.Debugw("obtained bundle",
		"anchor", entry.Anchor,
		"endpoints", len(bundle.Clusters),
		"contexts", len(bundle.Contexts),
		"duration", time.Since(start))
	return bundle, nil
}

// entryTimeout resolves the effective timeout for one invocation. A catalog
// entry may carry its own bound for known-slow issuers; a malformed value is
// an obtain failure for that entry, not a run abort.
func (r *Runner) entryTimeout(entry registry.Entry) (time.Duration, error) {
	if entry.ObtainTimeout == "" {
		return r.timeout, nil
	}
	d, err := time.ParseDuration(entry.ObtainTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid obtain timeout %q: %w", entry.ObtainTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("obtain timeout must be positive, got %q", entry.ObtainTimeout)
	}
	return d, nil
}

func (r *Runner) logStderr(anchor string, diag []byte) {
	for _, line := range strings.Split(strings.TrimSpace(string(diag)), "\n") {
		if line == "" {
			continue
		}
		r.logger.Debugw("obtain diagnostics", "anchor", anchor, "line", line)
	}
}

// argvData is the template context available to obtain argv elements, so one
// catalog command pattern can serve many clusters.
type argvData struct {
	Anchor      string
	Provider    string
	Description string
}

func renderArgv(entry registry.Entry) ([]string, error) {
	data := argvData{
		Anchor:      entry.Anchor,
		Provider:    entry.Metadata.Provider,
		Description: entry.Metadata.Description,
	}
	out := make([]string, 0, len(entry.Obtain))
	for i, arg := range entry.Obtain {
		if !strings.Contains(arg, "{{") {
			out = append(out, arg)
			continue
		}
		tmpl, err := template.New("arg").Funcs(sprig.FuncMap()).Option("missingkey=error").Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out = append(out, buf.String())
	}
	return out, nil
}
