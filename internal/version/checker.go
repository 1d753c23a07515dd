package version

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"time"
)

const VERSION_URL = "https://raw.githubusercontent.com/bezmoradi/keygrab/main/internal/version/version.go"

const checkTimeout = 3 * time.Second

var versionPattern = regexp.MustCompile(`VERSION\s*=\s*"v(\d+\.\d+\.\d+)"`)

// CheckVersion reports whether the installed version is current. Network
// failures count as current; the second result is the newer version.
func CheckVersion(ctx context.Context) (bool, string) {
	client := &http.Client{Timeout: checkTimeout}
	return check(ctx, client, VERSION_URL)
}

func check(ctx context.Context, client *http.Client, url string) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return true, ""
	}
	res, err := client.Do(req)
	if err != nil {
		return true, ""
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return true, ""
	}
	bytes, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return true, ""
	}

	newVersion := extractVersion(string(bytes))
	if newVersion == "" || newVersion == VERSION {
		return true, ""
	}
	return false, newVersion
}

func extractVersion(input string) string {
	matches := versionPattern.FindStringSubmatch(input)
	if len(matches) < 2 {
		return ""
	}
	return "v" + matches[1]
}
