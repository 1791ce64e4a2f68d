package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/myhippo/transcriber/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

// URLJoin joins urls with '/'
func URLJoin(urls ...string) string {
	u, err := url.Parse(urls[0])
	if err != nil || u.Host == "" {
		return strings.Join(urls, "/")
	}
	u.Path = path.Join(u.Path, path.Join(urls[1:]...))
	return u.String()
}

// GetURLFromConfig retrieves URL from config and checks it
func GetURLFromConfig(name string) (string, error) {
	return validateConfigURL(cmdapp.Config.GetString(name), name)
}

func validateConfigURL(urlStr, settingName string) (string, error) {
	if urlStr == "" {
		return "", errors.New("No " + settingName + " setting provided")
	}
	url, err := url.Parse(urlStr)
	if err != nil {
		return "", errors.Wrap(err, "Can't parse url "+urlStr)
	}
	return url.String(), nil
}

// ValidateResponse returns error if code is not in [200, 299]
func ValidateResponse(resp *http.Response) error {
	if !(resp.StatusCode >= 200 && resp.StatusCode <= 299) {
		bodyBytes, _ := io.ReadAll(resp.Body)
		trimS := ""
		if len(bodyBytes) > 100 {
			bodyBytes = bodyBytes[:100]
			trimS = "..."
		}
		return errors.Errorf("wrong response code from server. Code: %d\n%s",
			resp.StatusCode, string(bodyBytes)+trimS)
	}
	return nil
}

var audioExt = map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".aac": true,
	".ogg": true, ".flac": true, ".wma": true, ".opus": true}

// SupportAudioExt tests if the file extension is a supported audio format
func SupportAudioExt(ext string) bool {
	return audioExt[strings.ToLower(ext)]
}

// Float64ToSizeString formats byte size for logs
func Float64ToSizeString(size float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024.0 || unit == "GB" {
			return fmt.Sprintf("%.1f%s", size, unit)
		}
		size = size / 1024.0
	}
	return ""
}
