package onnxengine

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/scriptmaster/modelserve/internal/config"
)

// HFHubDownload downloads a single file from a Hugging Face Hub repo
// into the local cache, skipping the request entirely if already
// cached. No auth, no revision pinning: always resolves against the
// repo's default branch.
func HFHubDownload(repoID, filename string) (string, error) {
	cacheDir, err := hfCacheDir(repoID)
	if err != nil {
		return "", err
	}
	localPath := filepath.Join(cacheDir, filename)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", err
	}

	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	url := fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", repoID, filename)

	if err := headURL(url); err != nil {
		return "", fmt.Errorf("onnxengine: HFHubDownload HEAD %s: %w", filename, err)
	}
	if err := downloadURL(url, localPath); err != nil {
		return "", fmt.Errorf("onnxengine: HFHubDownload GET %s: %w", filename, err)
	}

	return localPath, nil
}

// HFHubEnsureFiles downloads every named file, failing if any HEAD
// does not come back 200.
func HFHubEnsureFiles(repoID string, files []string) (map[string]string, error) {
	cacheDir, err := hfCacheDir(repoID)
	if err != nil {
		return nil, err
	}
	res := make(map[string]string, len(files))
	for _, name := range files {
		if name == "" {
			continue
		}
		localPath := filepath.Join(cacheDir, name)
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, err
		}
		if _, err := os.Stat(localPath); err == nil {
			res[name] = localPath
			continue
		}
		url := fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", repoID, name)
		if err := headURL(url); err != nil {
			return nil, fmt.Errorf("HEAD %s: %w", name, err)
		}
		if err := downloadURL(url, localPath); err != nil {
			return nil, fmt.Errorf("GET %s: %w", name, err)
		}
		res[name] = localPath
	}
	return res, nil
}

// HFHubEnsureOptionalFiles is like HFHubEnsureFiles but silently skips
// files that 404 on HEAD, returning only the ones actually found.
func HFHubEnsureOptionalFiles(repoID string, files []string) (map[string]string, error) {
	cacheDir, err := hfCacheDir(repoID)
	if err != nil {
		return nil, err
	}
	res := make(map[string]string)
	for _, name := range files {
		if name == "" {
			continue
		}
		localPath := filepath.Join(cacheDir, name)
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, err
		}
		if _, err := os.Stat(localPath); err == nil {
			res[name] = localPath
			continue
		}
		url := fmt.Sprintf("https://huggingface.co/%s/resolve/main/%s", repoID, name)
		status, err := headURLStatus(url)
		if err != nil {
			return nil, fmt.Errorf("HEAD %s: %w", name, err)
		}
		if status == http.StatusNotFound {
			continue
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("HEAD %s: status %d", name, status)
		}
		if err := downloadURL(url, localPath); err != nil {
			return nil, fmt.Errorf("GET %s: %w", name, err)
		}
		res[name] = localPath
	}
	return res, nil
}

func hfCacheDir(repoID string) (string, error) {
	base := config.Load().CacheDir
	cacheDir := filepath.Join(base, "huggingface.co", repoID, "resolve", "main")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}
	return cacheDir, nil
}

func headURL(url string) error {
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

func headURLStatus(url string) (int, error) {
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func downloadURL(url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}
