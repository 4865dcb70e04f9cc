// Package npm updates package.json and publishes packages to the npm registry.
package npm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	autorelexec "github.com/ethpandaops/autorel/pkg/exec"
	"github.com/sirupsen/logrus"
)

// ManifestFile is the npm package manifest name.
const ManifestFile = "package.json"

// DefaultDistTag is used when publishing without a prerelease channel.
const DefaultDistTag = "latest"

// ErrNoVersionField is returned when package.json has no top-level version.
var ErrNoVersionField = errors.New("package.json has no version field")

// Manifest holds the package.json fields autorel reads.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Registry publishes the package in a directory.
type Registry struct {
	log     logrus.FieldLogger
	dir     string
	verbose bool
	npm     string
}

// NewRegistry creates a registry for the package in dir.
func NewRegistry(log logrus.FieldLogger, dir string, verbose bool) *Registry {
	return &Registry{
		log:     log.WithField("package", "npm"),
		dir:     dir,
		verbose: verbose,
		npm:     "npm",
	}
}

func (r *Registry) manifestPath() string {
	return filepath.Join(r.dir, ManifestFile)
}

// ReadManifest reads package.json.
func (r *Registry) ReadManifest() (*Manifest, error) {
	data, err := os.ReadFile(r.manifestPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ManifestFile, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}

	return &m, nil
}

// SetVersion writes version into package.json and returns the previous
// version. A leading "v" is stripped. Everything else in the file is kept
// byte for byte.
func (r *Registry) SetVersion(version string) (string, error) {
	path := r.manifestPath()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", ManifestFile, err)
	}

	updated, old, err := replaceVersion(data, strings.TrimPrefix(version, "v"))
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", ManifestFile, err)
	}

	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", ManifestFile, err)
	}

	r.log.WithFields(logrus.Fields{
		"old": old,
		"new": strings.TrimPrefix(version, "v"),
	}).Info("updated package.json version")

	return old, nil
}

// Publish runs npm publish with distTag, or latest when empty.
func (r *Registry) Publish(ctx context.Context, distTag string) error {
	if distTag == "" {
		distTag = DefaultDistTag
	}

	r.log.WithField("tag", distTag).Info("publishing package")

	if err := r.run(ctx, "publish", "--tag", distTag, "--loglevel", "warn"); err != nil {
		return fmt.Errorf("npm publish failed: %w", err)
	}

	return nil
}

// Unpublish removes spec (name@version) from the registry.
func (r *Registry) Unpublish(ctx context.Context, spec string) error {
	r.log.WithField("spec", spec).Info("unpublishing package")

	if err := r.run(ctx, "unpublish", spec, "--loglevel", "warn"); err != nil {
		return fmt.Errorf("npm unpublish %s failed: %w", spec, err)
	}

	return nil
}

func (r *Registry) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.npm, args...)
	cmd.Dir = r.dir

	return autorelexec.RunCmd(cmd, r.verbose)
}

// replaceVersion swaps the value of the top-level "version" key.
func replaceVersion(data []byte, version string) ([]byte, string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, "", fmt.Errorf("failed to parse %s: not an object", ManifestFile)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
		}

		key, _ := keyTok.(string)
		start := dec.InputOffset()

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
		}

		if key != "version" {
			continue
		}

		var old string
		if err := json.Unmarshal(raw, &old); err != nil {
			return nil, "", fmt.Errorf("version in %s is not a string", ManifestFile)
		}

		end := dec.InputOffset()
		valueAt := start + int64(bytes.Index(data[start:end], raw))

		encoded, err := json.Marshal(version)
		if err != nil {
			return nil, "", err
		}

		out := make([]byte, 0, len(data)+len(encoded))
		out = append(out, data[:valueAt]...)
		out = append(out, encoded...)
		out = append(out, data[valueAt+int64(len(raw)):]...)

		return out, old, nil
	}

	return nil, "", ErrNoVersionField
}
