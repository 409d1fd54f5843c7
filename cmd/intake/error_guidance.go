package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"intake/internal/api"
	"intake/internal/records"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusOK && apiErr.Message == records.MessageInvalidToken:
			lines = append(lines, "hint: use the token printed by `intake create`; tokens are case-sensitive.")
		case apiErr.Status == http.StatusOK && strings.Contains(apiErr.Message, "too large"):
			lines = append(lines, "hint: raise uploads.max_upload_bytes on the server or send fewer files.")
		case apiErr.Status == http.StatusOK:
			lines = append(lines, "hint: the server rejected the request; check server logs for details.")
		case apiErr.Code == "":
			lines = append(lines, "hint: verify INTAKE_API_URL points to an intake server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase INTAKE_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure an intake server is running at INTAKE_API_URL.",
			"hint: start local server manually with: intake srv",
			"hint: you can increase INTAKE_HTTP_TIMEOUT for slower environments.",
		)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
