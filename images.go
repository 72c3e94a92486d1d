package notionsite

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/notionsite/internal/logfields"
	"github.com/eringen/notionsite/metrics"
	"github.com/eringen/notionsite/notion"
)

const (
	previewWidth   = 16
	previewQuality = 60
	maxImageSize   = 20 << 20 // 20MB
	// maxImagePixels bounds the decoded size of an image, whatever its
	// compressed size.
	maxImagePixels = 40_000_000
)

// ErrImageTooLarge is returned for images whose dimensions exceed
// maxImagePixels.
var ErrImageTooLarge = errors.New("image too large")

// PreviewGenerator builds blurred placeholders for the images of a page and
// keeps them in the store.
type PreviewGenerator struct {
	store       *Store
	httpClient  *http.Client
	concurrency int
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// NewPreviewGenerator creates a PreviewGenerator downloading at most
// concurrency images at a time.
func NewPreviewGenerator(store *Store, concurrency int, rec metrics.Recorder, logger *slog.Logger) *PreviewGenerator {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &PreviewGenerator{
		store:       store,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		concurrency: concurrency,
		metrics:     rec,
		logger:      logger,
	}
}

// processPreview decodes an image and encodes a tiny JPEG of it as a data URI.
// The header is checked first so oversized images are never decoded.
func processPreview(src io.Reader) (notion.PreviewImage, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return notion.PreviewImage{}, fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return notion.PreviewImage{}, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return notion.PreviewImage{}, fmt.Errorf("decode image: %dx%d: %w", cfg.Width, cfg.Height, ErrImageTooLarge)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return notion.PreviewImage{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return notion.PreviewImage{}, fmt.Errorf("decode image: empty bounds")
	}

	newW := previewWidth
	if w < newW {
		newW = w
	}
	newH := h * newW / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: previewQuality}); err != nil {
		return notion.PreviewImage{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return notion.PreviewImage{
		OriginalWidth:  w,
		OriginalHeight: h,
		DataURIBase64:  "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

func (g *PreviewGenerator) download(ctx context.Context, url string) (notion.PreviewImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return notion.PreviewImage{}, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return notion.PreviewImage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return notion.PreviewImage{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	return processPreview(io.LimitReader(resp.Body, maxImageSize))
}

// Attach sets rm.PreviewImages for every image of the record map, generating
// the placeholders that are not stored yet. Images that fail to download or
// decode are skipped.
func (g *PreviewGenerator) Attach(ctx context.Context, rm *notion.RecordMap, mapImage notion.ImageURLMapper) error {
	urls := notion.PageImageURLs(rm, mapImage)
	if len(urls) == 0 {
		return nil
	}
	known, err := g.store.GetPreviewImages(ctx, urls)
	if err != nil {
		return fmt.Errorf("notionsite: load preview images: %w", err)
	}

	var missing []string
	for _, u := range urls {
		if _, ok := known[u]; !ok {
			missing = append(missing, u)
		}
	}
	generated := make([]notion.PreviewImage, len(missing))
	ok := make([]bool, len(missing))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, u := range missing {
		eg.Go(func() error {
			img, err := g.download(egCtx, u)
			if err != nil {
				g.logger.Warn("preview image skipped", logfields.URL(u), logfields.Error(err))
				return nil
			}
			generated[i], ok[i] = img, true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	count := 0
	for i, u := range missing {
		if !ok[i] {
			continue
		}
		if err := g.store.SavePreviewImage(ctx, u, generated[i]); err != nil {
			return fmt.Errorf("notionsite: save preview image: %w", err)
		}
		known[u] = generated[i]
		count++
	}
	g.metrics.AddPreviewImages(count)

	if rm.PreviewImages == nil {
		rm.PreviewImages = make(map[string]notion.PreviewImage, len(known))
	}
	for u, img := range known {
		rm.PreviewImages[u] = img
	}
	return nil
}
