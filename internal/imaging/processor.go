// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes uploaded profile photos: it detects the
// format, applies the EXIF orientation and renders the square thumbnail.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/oblog-go/internal/model"
)

var (
	// ErrUnsupportedFormat is returned for anything that is not a
	// decodable jpeg, png, gif or webp.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrTooLarge is returned for uploads over model.MaxPhotoSize.
	ErrTooLarge = errors.New("image too large")
)

// originalQuality is the JPEG quality of the re-encoded upload.
const originalQuality = 95

// Image is one encoded rendition of a photo.
type Image struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// Result holds the processed original and its thumbnail.
type Result struct {
	Original  Image
	Thumbnail Image
	// Ext is the file extension, with dot, matching the encoded format.
	Ext string
}

// photoFormat is an output encoding. WebP uploads are stored as JPEG
// since there is no pure Go WebP encoder.
type photoFormat struct {
	mime   string
	ext    string
	encode func(w io.Writer, img image.Image, quality int) error
}

var (
	jpegFormat = photoFormat{model.MimeTypeJPEG, ".jpg", func(w io.Writer, img image.Image, q int) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	}}
	pngFormat = photoFormat{model.MimeTypePNG, ".png", func(w io.Writer, img image.Image, _ int) error {
		return png.Encode(w, img)
	}}
	gifFormat = photoFormat{model.MimeTypeGIF, ".gif", func(w io.Writer, img image.Image, _ int) error {
		return gif.Encode(w, img, nil)
	}}
)

// outputFormats maps sniffed content types to how they are stored. TIFF
// is absent on purpose: disintegration/imaging is vulnerable to crafted
// TIFF files (CVE-2023-36308).
var outputFormats = map[string]photoFormat{
	model.MimeTypeJPEG: jpegFormat,
	model.MimeTypePNG:  pngFormat,
	model.MimeTypeGIF:  gifFormat,
	model.MimeTypeWebP: jpegFormat,
}

// Processor renders photos and their thumbnails.
type Processor struct {
	thumbnail model.Thumbnail
}

// NewProcessor creates a processor producing the given thumbnail.
func NewProcessor(thumbnail model.Thumbnail) *Processor {
	return &Processor{thumbnail: thumbnail}
}

// Process decodes r, auto-rotates it and returns the re-encoded original
// together with the thumbnail. EXIF metadata is not preserved.
func (p *Processor) Process(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, model.MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > model.MaxPhotoSize {
		return nil, ErrTooLarge
	}

	format, ok := outputFormats[http.DetectContentType(data)]
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	img = applyOrientation(img, exifOrientation(data))

	original, err := render(img, format, originalQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	t := p.thumbnail
	var small image.Image
	if t.Crop {
		small = imaging.Fill(img, t.Width, t.Height, imaging.Center, imaging.Lanczos)
	} else {
		small = imaging.Fit(img, t.Width, t.Height, imaging.Lanczos)
	}
	thumbnail, err := render(small, format, t.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}

	return &Result{Original: original, Thumbnail: thumbnail, Ext: format.ext}, nil
}

func render(img image.Image, f photoFormat, quality int) (Image, error) {
	var buf bytes.Buffer
	if err := f.encode(&buf, img, quality); err != nil {
		return Image{}, err
	}
	b := img.Bounds()
	return Image{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy(), MimeType: f.mime}, nil
}

// exifOrientation returns 1 (upright) when the tag is missing or unreadable.
func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// applyOrientation undoes an EXIF orientation (1-8).
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
