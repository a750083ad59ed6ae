package sources

import (
	"context"
	"io"
	"net/http"

	"github.com/repotools/artlist/pkg/httputil"
	"github.com/repotools/artlist/pkg/maven"
)

// PomExists probes whether the coordinate's POM exists in the repository.
// Used both to locate dependency-list artifacts and by the
// excluded-repository filter.
func PomExists(ctx context.Context, client *http.Client, repoURL string, coord maven.Coordinate) (bool, error) {
	if client == nil {
		client = http.DefaultClient
	}
	url := slashAtTheEnd(repoURL) + coord.PomPath()

	var exists bool
	err := httputil.RetryWithBackoff(ctx, func() error {
		resp, err := httputil.Do(ctx, client, http.MethodHead, url, nil, nil, nil)
		if err != nil {
			return err
		}
		resp.Body.Close()
		exists = resp.StatusCode == http.StatusOK
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

// urlExists probes a URL with a HEAD request.
func urlExists(ctx context.Context, client *http.Client, url string) bool {
	resp, err := httputil.Do(ctx, client, http.MethodHead, url, nil, nil, nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func readAllAndClose(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
