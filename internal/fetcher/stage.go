package fetcher

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// InputExtensions are the complaint export formats the parser reads.
var InputExtensions = []string{".csv", ".txt", ".xlsx"}

// Stager turns an input location into a local file the parser can open:
// http(s) URLs are downloaded and .zip archives are unpacked.
type Stager struct {
	fetcher Fetcher
	workDir string
}

// NewStager creates a Stager that keeps downloads and extracted files under
// workDir.
func NewStager(f Fetcher, workDir string) *Stager {
	return &Stager{fetcher: f, workDir: workDir}
}

// IsRemote reports whether input is an http(s) URL.
func IsRemote(input string) bool {
	u, err := url.Parse(input)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NeedsStaging reports whether Stage would download or unpack input.
func NeedsStaging(input string) bool {
	return IsRemote(input) || strings.EqualFold(filepath.Ext(input), ".zip")
}

// Stage returns a local path for input. Local non-archive paths are
// returned unchanged.
func (s *Stager) Stage(ctx context.Context, input string) (string, error) {
	local := input

	if IsRemote(input) {
		if s.fetcher == nil {
			return "", eris.New("stage: no fetcher for remote input")
		}
		u, _ := url.Parse(input)
		name := path.Base(u.Path)
		if name == "" || name == "/" || name == "." {
			name = "input"
		}
		local = filepath.Join(s.workDir, name)

		n, err := s.fetcher.DownloadToFile(ctx, input, local)
		if err != nil {
			return "", eris.Wrapf(err, "stage: download %s", input)
		}
		zap.L().Info("stage: downloaded input", zap.String("url", input), zap.Int64("bytes", n))
	}

	if strings.EqualFold(filepath.Ext(local), ".zip") {
		dest := filepath.Join(s.workDir, "unzipped")
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return "", eris.Wrap(err, "stage: create extract directory")
		}
		extracted, err := ExtractZIPFirst(local, dest, InputExtensions...)
		if err != nil {
			return "", eris.Wrapf(err, "stage: unpack %s", local)
		}
		zap.L().Info("stage: extracted input", zap.String("archive", local), zap.String("file", extracted))
		local = extracted
	}

	return local, nil
}
