// Package atomicfile provides crash-safe file and directory materialization.
// Content is staged at a temporary sibling path, forced to durable storage,
// and moved into place with a single rename. A reader never observes a
// partially written file or package directory.
package atomicfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes data to path atomically. The destination either keeps its
// previous content or holds the complete new content; never a mix.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("atomic write %s: create temp: %w", path, err)
	}
	tmpName := tmp.Name()

	// Remove the temp file on any failure path so aborted writes leave no
	// stray siblings behind.
	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return cause
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("atomic write %s: write temp: %w", path, err))
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanup(fmt.Errorf("atomic write %s: chmod temp: %w", path, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("atomic write %s: sync temp: %w", path, err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("atomic write %s: close temp: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("atomic write %s: rename: %w", path, err)
	}

	return syncDir(dir)
}

// WriteJSON marshals v with indentation and writes it atomically to path.
func WriteJSON(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("atomic write %s: marshal: %w", path, err)
	}
	return WriteFile(path, append(data, '\n'), perm)
}

// CommitDir moves a fully staged directory into its final location. stagedDir
// must live on the same filesystem as finalDir (use a sibling path). Every
// regular file in the staged tree is synced before the rename so a crash after
// commit cannot surface truncated artifacts.
func CommitDir(stagedDir, finalDir string) error {
	if _, err := os.Stat(finalDir); err == nil {
		return fmt.Errorf("commit %s: destination already exists", finalDir)
	}

	if err := syncTree(stagedDir); err != nil {
		return fmt.Errorf("commit %s: %w", finalDir, err)
	}
	if err := os.Rename(stagedDir, finalDir); err != nil {
		return fmt.Errorf("commit %s: rename: %w", finalDir, err)
	}
	return syncDir(filepath.Dir(finalDir))
}

// syncTree fsyncs every regular file under root.
func syncTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		syncErr := f.Sync()
		closeErr := f.Close()
		if syncErr != nil {
			return syncErr
		}
		return closeErr
	})
}

// syncDir fsyncs a directory so the rename itself is durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("sync dir %s: %w", dir, err)
	}
	syncErr := d.Sync()
	closeErr := d.Close()
	if syncErr != nil {
		return fmt.Errorf("sync dir %s: %w", dir, syncErr)
	}
	return closeErr
}
