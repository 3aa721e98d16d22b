package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/vimeokit/vimeo"
)

var (
	getPolicy   string
	getRetries  int
	getAllPages bool
)

// getCmd issues a GET request through the pipeline
var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Fetch an API path through the request pipeline",
	Long: `Fetch an API path, e.g. "/me/videos", resolving it through the response
cache and the network according to the chosen policy. With --all-pages the
pagination links are followed until the collection is exhausted.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVar(&getPolicy, "policy", "cache-network", "cache fetch policy: cache, network, cache-network, network-cache")
	getCmd.Flags().IntVar(&getRetries, "retries", 0, "retry attempts on network failure")
	getCmd.Flags().BoolVar(&getAllPages, "all-pages", false, "follow pagination links until exhausted")
}

func runGet(cmd *cobra.Command, args []string) error {
	policy, err := parsePolicy(getPolicy)
	if err != nil {
		return err
	}

	req := vimeo.NewRequest(args[0])
	req.CacheFetchPolicy = policy
	if getRetries > 0 {
		req.RetryPolicy = vimeo.MultipleAttemptsPolicy(getRetries+1, time.Second)
	}

	for {
		resp, err := fetchFinal(req)
		if err != nil {
			return err
		}

		if err := printResponse(resp); err != nil {
			return err
		}

		if !getAllPages || resp.Paging == nil || resp.Paging.Next == nil {
			return nil
		}
		req = *resp.Paging.Next
	}
}

// fetchFinal runs a request and blocks until its final delivery. Provisional
// cached deliveries are logged and skipped.
func fetchFinal(req vimeo.Request) (*vimeo.Response, error) {
	type outcome struct {
		resp *vimeo.Response
		err  error
	}
	// Buffered for two deliveries so neither completion blocks.
	done := make(chan outcome, 2)

	client.Do(req, func(resp *vimeo.Response, err error) {
		if err != nil {
			done <- outcome{err: err}
			return
		}
		if !resp.IsFinalResponse {
			logger.Debug().Str("path", req.Path).Msg("Provisional cached response received")
			return
		}
		done <- outcome{resp: resp}
	})

	result := <-done
	return result.resp, result.err
}

// printResponse renders a response payload plus its pagination summary.
func printResponse(resp *vimeo.Response) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]any(resp.Payload)); err != nil {
		return fmt.Errorf("failed to render response: %w", err)
	}

	if resp.Paging != nil {
		fmt.Fprintf(os.Stderr, "page %d (%d per page, %d total)\n",
			resp.Paging.Page, resp.Paging.ItemsPerPage, resp.Paging.TotalCount)
	}
	if resp.IsCachedResponse {
		fmt.Fprintln(os.Stderr, "(served from cache)")
	}

	return nil
}

func parsePolicy(name string) (vimeo.CacheFetchPolicy, error) {
	switch name {
	case "cache":
		return vimeo.CacheOnly, nil
	case "network":
		return vimeo.NetworkOnly, nil
	case "cache-network":
		return vimeo.CacheThenNetwork, nil
	case "network-cache":
		return vimeo.TryNetworkThenCache, nil
	default:
		return 0, fmt.Errorf("unknown cache fetch policy: %s", name)
	}
}
