package release

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"
)

// ErrGHNotFound is returned when the gh CLI is not installed.
var ErrGHNotFound = errors.New("gh CLI not found: please install it from https://cli.github.com")

const apiVersionHeader = "X-GitHub-Api-Version: 2022-11-28"

// CheckPrerequisites verifies gh CLI is installed and authenticated.
func (s *service) CheckPrerequisites(ctx context.Context) error {
	if _, err := exec.LookPath("gh"); err != nil {
		return ErrGHNotFound
	}

	// An explicit token is enough; gh auth status only covers stored logins.
	if s.token != "" {
		return nil
	}

	output, err := s.run(ctx, "auth", "status")
	if err != nil {
		return fmt.Errorf("gh not authenticated: set GITHUB_TOKEN or run 'gh auth login' first: %w", err)
	}

	s.log.WithField("output", output).Debug("gh auth status")

	return nil
}

// CreateRelease creates a GitHub release through the REST API.
func (s *service) CreateRelease(ctx context.Context, params Params) (*Release, error) {
	if params.Owner == "" || params.Repo == "" || params.Tag == "" {
		return nil, errors.New("owner, repo and tag are required to create a release")
	}

	name := params.Name
	if name == "" {
		name = params.Tag
	}

	s.log.WithFields(map[string]any{
		"repo":       params.Owner + "/" + params.Repo,
		"tag":        params.Tag,
		"prerelease": params.Prerelease,
	}).Info("creating release")

	output, err := s.run(ctx, "api",
		"--method", "POST",
		"-H", "Accept: application/vnd.github+json",
		"-H", apiVersionHeader,
		fmt.Sprintf("/repos/%s/%s/releases", params.Owner, params.Repo),
		"-f", "tag_name="+params.Tag,
		"-f", "name="+name,
		"-f", "body="+params.Body,
		"-F", "draft="+strconv.FormatBool(params.Draft),
		"-F", "prerelease="+strconv.FormatBool(params.Prerelease))
	if err != nil {
		return nil, fmt.Errorf("failed to create release: %w", err)
	}

	var rel Release
	if err := json.Unmarshal([]byte(output), &rel); err != nil {
		return nil, fmt.Errorf("failed to parse release response: %w", err)
	}

	if rel.ID == 0 {
		return nil, fmt.Errorf("release response for %s has no id", params.Tag)
	}

	return &rel, nil
}

// DeleteRelease deletes a release by ID.
func (s *service) DeleteRelease(ctx context.Context, owner, repo string, id int64) error {
	s.log.WithFields(map[string]any{
		"repo": owner + "/" + repo,
		"id":   id,
	}).Info("deleting release")

	_, err := s.run(ctx, "api",
		"--method", "DELETE",
		"-H", "Accept: application/vnd.github+json",
		"-H", apiVersionHeader,
		fmt.Sprintf("/repos/%s/%s/releases/%d", owner, repo, id))
	if err != nil {
		if strings.Contains(err.Error(), "HTTP 404") {
			s.log.WithField("id", id).Debug("release already deleted")

			return nil
		}

		return fmt.Errorf("failed to delete release %d: %w", id, err)
	}

	return nil
}

// runGH executes a gh command and returns output.
func (s *service) runGH(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)

	if s.token != "" {
		cmd.Env = append(os.Environ(), "GH_TOKEN="+s.token)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.log.WithField("args", redactArgs(args)).Debug("running gh command")

	if err := cmd.Run(); err != nil {
		// gh colors its errors when it thinks it is on a terminal
		errMsg := strings.TrimSpace(stripansi.Strip(stderr.String()))
		if errMsg == "" {
			errMsg = err.Error()
		}

		return "", fmt.Errorf("gh %s: %s", strings.Join(redactArgs(args), " "), errMsg)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// redactArgs drops release bodies from logged arguments.
func redactArgs(args []string) []string {
	out := make([]string, len(args))

	for i, arg := range args {
		if strings.HasPrefix(arg, "body=") {
			arg = "body=<redacted>"
		}

		out[i] = arg
	}

	return out
}
