package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openreel/reelrender/internal/models"
)

var (
	serverURL string
	apiKey    string
)

func main() {
	root := &cobra.Command{
		Use:   "reelctl",
		Short: "Submit and inspect render jobs",
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "API server base URL")
	root.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("BACKEND_API_KEY"), "API key (defaults to BACKEND_API_KEY)")

	root.AddCommand(newSubmitCmd())
	root.AddCommand(newStatusCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSubmitCmd() *cobra.Command {
	var (
		wait         bool
		pollInterval time.Duration
		pollTimeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit <request.json>",
		Short: "Submit a render request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read request file: %w", err)
			}

			// Validate locally before bothering the server
			var req models.RenderRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return fmt.Errorf("invalid request JSON: %w", err)
			}
			if req.VoiceoverURL == "" {
				return fmt.Errorf("voiceover_url is required")
			}

			var created models.CreateRenderResponse
			if err := call("POST", serverURL+"/v1/renders", body, &created); err != nil {
				return err
			}

			fmt.Printf("Render %s queued\n", created.RenderID)
			if !wait {
				return nil
			}

			return pollUntilDone(created.RenderID, pollInterval, pollTimeout)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the render finishes")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 3*time.Second, "Polling interval with --wait")
	cmd.Flags().DurationVar(&pollTimeout, "timeout", 15*time.Minute, "Give up waiting after this long")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <render-id>",
		Short: "Show the status of a render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var status models.RenderStatusResponse
			if err := call("GET", serverURL+"/v1/renders/"+args[0], nil, &status); err != nil {
				return err
			}

			out, _ := json.MarshalIndent(status, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func pollUntilDone(renderID string, interval, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		time.Sleep(interval)

		var status models.RenderStatusResponse
		if err := call("GET", serverURL+"/v1/renders/"+renderID, nil, &status); err != nil {
			return err
		}

		switch status.Status {
		case models.RenderStatusSucceeded:
			if status.VideoURL != nil {
				fmt.Println(*status.VideoURL)
			}
			return nil
		case models.RenderStatusFailed:
			msg := "unknown error"
			if status.ErrorMessage != nil {
				msg = *status.ErrorMessage
			}
			return fmt.Errorf("render failed: %s", msg)
		default:
			fmt.Fprintf(os.Stderr, "status: %s\n", status.Status)
		}
	}

	return fmt.Errorf("gave up waiting after %s", timeout)
}

func call(method, url string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	return json.Unmarshal(data, out)
}
