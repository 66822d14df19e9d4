package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// CreateLink creates a project-local reference to target at linkPath without
// copying: a symlink on POSIX, a directory junction on Windows (see
// link_unix.go / link_windows.go). If the platform's filesystem refuses
// symlinks, it falls back to a recursive copy.
//
// If force is true, any existing entry at linkPath — including a broken
// symlink or junction — is removed first. create_link must not follow an
// existing symlink when testing for presence; Lstat (not Stat) is used so a
// broken link still counts as "existing".
func CreateLink(linkPath, targetPath string, force bool) error {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return fmt.Errorf("resolving target %s: %w", targetPath, err)
	}

	if _, err := os.Lstat(linkPath); err == nil {
		if !force {
			return fmt.Errorf("%s already exists; pass force to overwrite", linkPath)
		}
		if err := RemoveLink(linkPath); err != nil {
			return fmt.Errorf("removing existing entry at %s: %w", linkPath, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(linkPath), 0o755); err != nil {
		return fmt.Errorf("creating parent of %s: %w", linkPath, err)
	}

	if err := platformCreateLink(linkPath, absTarget); err != nil {
		// Fall back to a recursive copy on filesystems that refuse symlinks.
		if copyErr := copyTree(absTarget, linkPath); copyErr != nil {
			return fmt.Errorf("creating link %s -> %s: %w (copy fallback also failed: %v)", linkPath, absTarget, err, copyErr)
		}
	}
	return nil
}

// ResolveLink returns the target a link points to, or "" if linkPath is not
// a link this package recognizes.
func ResolveLink(linkPath string) (string, error) {
	return platformResolveLink(linkPath)
}

// IsValidLink reports whether linkPath is a link (of whatever form this
// platform uses) whose target currently exists.
func IsValidLink(linkPath string) bool {
	target, err := ResolveLink(linkPath)
	if err != nil || target == "" {
		return false
	}
	_, err = os.Stat(target)
	return err == nil
}

// IsBrokenLink reports whether linkPath is a link whose target does not
// exist.
func IsBrokenLink(linkPath string) bool {
	target, err := ResolveLink(linkPath)
	if err != nil || target == "" {
		return false
	}
	_, err = os.Stat(target)
	return err != nil
}

// RemoveLink removes the link at linkPath only — the target is never
// touched. A Windows junction is removed via directory removal; a POSIX
// symlink via unlink.
func RemoveLink(linkPath string) error {
	info, err := os.Lstat(linkPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return os.Remove(linkPath)
	}
	return platformRemoveJunction(linkPath)
}

// FindLinks walks root and returns every path this package recognizes as a
// link.
func FindLinks(root string) ([]string, error) {
	var links []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == root {
			return nil
		}
		if isPlatformLink(path, d) {
			links = append(links, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	return links, err
}

// FindBrokenLinks walks root and returns every link whose target is missing.
func FindBrokenLinks(root string) ([]string, error) {
	links, err := FindLinks(root)
	if err != nil {
		return nil, err
	}
	var broken []string
	for _, l := range links {
		if IsBrokenLink(l) {
			broken = append(broken, l)
		}
	}
	return broken, nil
}

// CleanupBrokenLinks removes every broken link under root. When dryRun is
// true it only reports what would be removed.
func CleanupBrokenLinks(root string, dryRun bool) ([]string, error) {
	broken, err := FindBrokenLinks(root)
	if err != nil {
		return nil, err
	}
	if dryRun {
		return broken, nil
	}
	var removed []string
	for _, l := range broken {
		if err := RemoveLink(l); err != nil {
			continue
		}
		removed = append(removed, l)
	}
	return removed, nil
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}
	if err := os.MkdirAll(dst, info.Mode()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s := filepath.Join(src, e.Name())
		d := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := copyTree(s, d); err != nil {
				return err
			}
			continue
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		if err := copyFile(s, d, info.Mode()); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, mode)
}
