package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Artifact file names inside the output directory.
const (
	PointsFile = "points.json"
	EdgesFile  = "edges.json"
)

// rename is swapped in tests to fail individual publish steps.
var rename = os.Rename

// Persist writes points.json and edges.json into dir. Both files are staged
// as temporaries first. If publishing edges.json fails after points.json was
// replaced, the previous points.json is restored, so the directory never
// holds artifacts from two different runs.
func Persist(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	points, err := encodeArtifact(res.Points)
	if err != nil {
		return fmt.Errorf("encode points: %w", err)
	}
	edges, err := encodeArtifact(res.Edges)
	if err != nil {
		return fmt.Errorf("encode edges: %w", err)
	}

	pointsPath := filepath.Join(dir, PointsFile)
	edgesPath := filepath.Join(dir, EdgesFile)
	for _, dst := range []string{pointsPath, edgesPath} {
		if err := checkReplaceable(dst); err != nil {
			return err
		}
	}

	pointsTmp, err := writeTemp(dir, PointsFile, points)
	if err != nil {
		return err
	}
	defer os.Remove(pointsTmp)

	edgesTmp, err := writeTemp(dir, EdgesFile, edges)
	if err != nil {
		return err
	}
	defer os.Remove(edgesTmp)

	backup, err := backupFile(dir, pointsPath)
	if err != nil {
		return err
	}
	if backup != "" {
		defer os.Remove(backup)
	}

	if err := rename(pointsTmp, pointsPath); err != nil {
		return errors.Join(fmt.Errorf("publish %s: %w", PointsFile, err), restore(backup, pointsPath))
	}
	if err := rename(edgesTmp, edgesPath); err != nil {
		return errors.Join(fmt.Errorf("publish %s: %w", EdgesFile, err), restore(backup, pointsPath))
	}
	return nil
}

// checkReplaceable rejects destinations a rename cannot overwrite.
func checkReplaceable(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect %s: %w", filepath.Base(path), err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("publish %s: destination is not a regular file (%s)", filepath.Base(path), info.Mode().Type())
	}
	return nil
}

// backupFile copies path to a hidden temporary and returns its name, or ""
// when path does not exist yet.
func backupFile(dir, path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("back up %s: %w", filepath.Base(path), err)
	}
	return writeTemp(dir, filepath.Base(path)+".bak", data)
}

// restore puts backup back at path, or removes path when there was nothing
// to back up.
func restore(backup, path string) error {
	if backup == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("roll back %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if err := os.Rename(backup, path); err != nil {
		return fmt.Errorf("roll back %s: %w", filepath.Base(path), err)
	}
	return nil
}

// encodeArtifact renders v as 4-space indented JSON without HTML escaping,
// so names like "R&B" stay readable.
func encodeArtifact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return f.Name(), nil
}
