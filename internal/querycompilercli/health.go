package querycompilercli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	defaultHealthPort    = "5080"
	defaultHealthTimeout = 5 * time.Second
)

// HealthOptions holds flags for the health command.
type HealthOptions struct {
	Quiet   bool
	Timeout time.Duration
}

// NewHealthCommand creates the health command, a check for container health that
// exits non-zero unless the service answers its health endpoint below status 400.
func NewHealthCommand() *cobra.Command {
	opts := &HealthOptions{}

	cmd := &cobra.Command{
		Use:   "health [url]",
		Short: "Probe the health endpoint of a running service",
		Long: `Probe the health endpoint of a running service.

Without a URL the check targets 127.0.0.1 on SERVER_PORT (default 5080) under
SERVER_CONTEXTPATH, the same variables the service reads its configuration from.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := defaultHealthURL()
			if len(args) == 1 {
				url = args[0]
			}
			err := checkHealth(url, opts.Timeout, cmd.OutOrStdout())
			if err != nil && !opts.Quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "print nothing on failure")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", defaultHealthTimeout, "request timeout")

	return cmd
}

func defaultHealthURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = defaultHealthPort
	}
	return fmt.Sprintf("http://127.0.0.1:%s%s/health", port, os.Getenv("SERVER_CONTEXTPATH"))
}

func checkHealth(url string, timeout time.Duration, out io.Writer) error {
	if timeout <= 0 {
		return errors.New("HEALTHPROBE-PARSE-INVALIDTIMEOUT")
	}
	client := &http.Client{Timeout: timeout}

	response, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("HEALTHPROBE-RUN-REQUESTFAILED: %w", err)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HEALTHPROBE-RUN-UNHEALTHYSTATUS: %d", response.StatusCode)
	}
	if _, err := io.Copy(out, response.Body); err != nil {
		return fmt.Errorf("HEALTHPROBE-RUN-WRITEFAILED: %w", err)
	}
	return nil
}
