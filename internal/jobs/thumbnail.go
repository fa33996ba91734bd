package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"propcore/internal/model"
	"propcore/internal/repository"
	"propcore/internal/storage"
)

const thumbnailMaxEdge = 256

// ThumbnailProcessor renders a small JPEG preview for image documents and
// stores it next to the original under a thumbnails/ prefix. Non-image
// content is recorded as skipped.
type ThumbnailProcessor struct {
	store storage.Storage
}

// NewThumbnailProcessor constructs the thumbnail pipeline step.
func NewThumbnailProcessor(store storage.Storage) *ThumbnailProcessor {
	return &ThumbnailProcessor{store: store}
}

func (p *ThumbnailProcessor) Kind() model.JobKind { return model.JobThumbnail }

func (p *ThumbnailProcessor) Process(ctx context.Context, job *model.Job) (json.RawMessage, *repository.DocumentDerived, error) {
	in, err := DecodePayload(job)
	if err != nil {
		return nil, nil, err
	}

	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		result, _ := json.Marshal(map[string]any{"skipped": true, "reason": "not an image"})
		return result, nil, nil
	}

	obj, _, err := p.store.Get(ctx, in.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", in.StoragePath, err)
	}
	defer obj.Close()

	src, _, err := image.Decode(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", in.StoragePath, err)
	}

	thumb := downscale(src, thumbnailMaxEdge)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	key := path.Join("thumbnails", strings.TrimSuffix(path.Base(in.StoragePath), path.Ext(in.StoragePath))+".jpg")
	if _, err := p.store.Put(ctx, key, &buf, storage.PutObjectOptions{
		Size:        int64(buf.Len()),
		ContentType: "image/jpeg",
	}); err != nil {
		return nil, nil, fmt.Errorf("store thumbnail: %w", err)
	}

	b := thumb.Bounds()
	result, _ := json.Marshal(map[string]any{"key": key, "width": b.Dx(), "height": b.Dy()})
	return result, &repository.DocumentDerived{ThumbnailPath: strPtr(key)}, nil
}

// downscale resizes with nearest-neighbour sampling so the longest edge fits
// maxEdge. Images already small enough pass through.
func downscale(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := b.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			sx := b.Min.X + x*w/nw
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
