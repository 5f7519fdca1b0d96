package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/wa-gateway-go/internal/errors"
	"github.com/openclaw/wa-gateway-go/internal/model"
)

const defaultMimeType = "application/octet-stream"

var mimeExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"audio/mpeg":      "mp3",
	"audio/wav":       "wav",
	"video/mp4":       "mp4",
	"application/pdf": "pdf",
}

var pathExtensionPattern = regexp.MustCompile(`\.([a-zA-Z0-9]+)$`)

// MediaResolver downloads a remote media URL into memory.
type MediaResolver struct {
	client *http.Client
	now    func() time.Time
}

func NewMediaResolver(timeout time.Duration) *MediaResolver {
	return &MediaResolver{
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (r *MediaResolver) Resolve(ctx context.Context, url string) (*model.MediaPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.InvalidInput("media_url", err.Error())
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("media fetch failed")
		return nil, apperrors.Upstream(fmt.Errorf("fetch media: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("media fetch returned non-success status")
		return nil, apperrors.MediaFetchFailed(resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Upstream(fmt.Errorf("read media: %w", err))
	}

	mimeType := contentMimeType(resp.Header.Get("Content-Type"))
	ext := extensionFor(mimeType, url)

	log.Debug().
		Str("mimeType", mimeType).
		Int("bytes", len(data)).
		Msg("media resolved")

	return &model.MediaPayload{
		MimeType: mimeType,
		Data:     data,
		Filename: fmt.Sprintf("media_%d.%s", r.now().UnixMilli(), ext),
	}, nil
}

func contentMimeType(header string) string {
	if header == "" {
		return defaultMimeType
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	}
	if mediaType == "" {
		return defaultMimeType
	}
	return strings.ToLower(mediaType)
}

// extensionFor picks a file extension from the MIME table, then from the
// suffix of the URL path. Host, query and fragment are never consulted.
func extensionFor(mimeType, rawURL string) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	if m := pathExtensionPattern.FindStringSubmatch(u.Path); m != nil {
		return strings.ToLower(m[1])
	}
	return "unknown"
}
