// Package pack turns a validated spec/config pair into the package archive
// the backend runs: it executes the declared build command, stages static
// assets and the artifact, and tars the result in memory. Builds are
// cached by input digest.
package pack

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"skiff/internal/manifest"
)

// Options configures one package build.
type Options struct {
	// SpecPath locates the specification document; the build command runs
	// in its directory and static/artifact paths resolve against it.
	SpecPath string
	Spec     *manifest.AppSpec
	Metadata *manifest.AppMetadata

	// Cache is optional; nil disables caching.
	Cache *Cache

	// Build command output. Nil discards.
	Stdout io.Writer
	Stderr io.Writer
}

// Build produces the package archive. Cached archives skip the build
// command entirely.
func Build(ctx context.Context, opts Options) ([]byte, error) {
	if opts.Spec.Artifact == "" {
		return nil, fmt.Errorf("spec declares no artifact")
	}
	specDir, err := filepath.Abs(filepath.Dir(opts.SpecPath))
	if err != nil {
		return nil, err
	}

	env := injectedEnv(opts.Metadata)

	var key Digest
	if opts.Cache != nil {
		key, err = DigestInputs(specDir, opts.Spec.Build, env)
		if err != nil {
			return nil, fmt.Errorf("digest build inputs: %w", err)
		}
		if payload, ok, err := opts.Cache.Get(key); err != nil {
			return nil, err
		} else if ok {
			return payload.Archive, nil
		}
	}

	if opts.Spec.Build != "" {
		if err := runBuild(ctx, specDir, opts.Spec.Build, env, opts.Stdout, opts.Stderr); err != nil {
			return nil, err
		}
	}

	stage, err := os.MkdirTemp("", "skiff-deploy-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(stage) //nolint:errcheck

	if opts.Spec.Static != "" {
		if err := copyTree(filepath.Join(specDir, opts.Spec.Static), stage); err != nil {
			return nil, fmt.Errorf("stage static assets: %w", err)
		}
	}

	artifactSrc := filepath.Join(specDir, opts.Spec.Artifact)
	artifactDst := filepath.Join(stage, filepath.Base(opts.Spec.Artifact))
	if err := copyFile(artifactSrc, artifactDst); err != nil {
		return nil, fmt.Errorf("stage artifact: %w", err)
	}

	archive, err := tarDir(stage)
	if err != nil {
		return nil, err
	}

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, &CachePayload{Schema: cacheSchemaVersion, Archive: archive}); err != nil {
			return nil, fmt.Errorf("write build cache: %w", err)
		}
	}
	return archive, nil
}

// injectedEnv maps every plain config entry to SKIFF_<KEY> for the build
// command. Secrets are deliberately not exposed to builds.
func injectedEnv(md *manifest.AppMetadata) map[string]string {
	env := make(map[string]string, len(md.Env))
	for k, v := range md.Env {
		env["SKIFF_"+k] = v
	}
	return env
}

func runBuild(ctx context.Context, dir, build string, env map[string]string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", build)
	cmd.Dir = dir
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			// Symlinks and specials are skipped; the archive carries
			// regular files only.
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	// #nosec G304 -- paths resolve under the operator's spec directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	return out.Close()
}

// tarDir archives a directory in memory with a stable member order.
func tarDir(dir string) ([]byte, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return nil, err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		// #nosec G304 -- staged files only
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(tw, f)
		f.Close() //nolint:errcheck
		if err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
