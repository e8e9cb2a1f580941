// Package imageinfo reads the header-level facts of a single image file:
// content type, pixel dimensions, timestamps and raw EXIF tags.
package imageinfo

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	// Header decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/jamesainslie/imgsnap/pkg/imgsnap/fsutil"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/logging"
	"github.com/jamesainslie/imgsnap/pkg/imgsnap/scanner"
)

var logger = logging.Get("imageinfo")

// ErrNotRegular is returned for directories, devices and other non-regular files.
var ErrNotRegular = errors.New("not a regular file")

// UnknownMIME is reported when neither the content nor the extension is recognized.
const UnknownMIME = "application/octet-stream"

var extensionMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
}

// Tag is a single EXIF field rendered as text.
type Tag struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Info describes one image file.
type Info struct {
	Path       string    `json:"path" yaml:"path"`
	Size       int64     `json:"size" yaml:"size"`
	ModTime    time.Time `json:"mod_time" yaml:"mod_time"`
	CreateTime time.Time `json:"create_time" yaml:"create_time"`
	MIME       string    `json:"mime" yaml:"mime"`

	// Format is the decoder name ("jpeg", "png") or the upper-cased
	// extension when the header could not be decoded.
	Format string `json:"format" yaml:"format"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`

	// Taken is the EXIF capture time, zero when absent.
	Taken time.Time `json:"taken,omitzero" yaml:"taken,omitempty"`
	Tags  []Tag     `json:"tags,omitempty" yaml:"tags,omitempty"`

	// HasThumbnail reports an embedded EXIF JPEG thumbnail.
	HasThumbnail bool `json:"has_thumbnail" yaml:"has_thumbnail"`
}

// Year returns the capture year when EXIF provides one, else the
// modification year.
func (i *Info) Year() int {
	if !i.Taken.IsZero() {
		return i.Taken.Year()
	}
	return i.ModTime.Year()
}

// HasDimensions reports whether the header yielded a size.
func (i *Info) HasDimensions() bool {
	return i.Width > 0 && i.Height > 0
}

// Read inspects the file at path. Header and EXIF failures are not errors;
// the corresponding fields are left empty.
func Read(path string) (*Info, error) {
	abs, err := fsutil.AbsPath(path)
	if err != nil {
		return nil, err
	}

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", abs, ErrNotRegular)
	}

	info := &Info{
		Path:       abs,
		Size:       fi.Size(),
		ModTime:    fi.ModTime(),
		CreateTime: fsutil.BirthTime(abs, fi),
		MIME:       DetectMIME(abs),
	}

	if w, h, format, err := Dimensions(abs); err == nil {
		info.Width, info.Height, info.Format = w, h, format
	} else {
		logger.Debug("header decode failed", "path", abs, "error", err)
		info.Format = strings.ToUpper(strings.TrimPrefix(filepath.Ext(abs), "."))
	}

	if x, err := decodeExif(abs); err == nil {
		info.Taken, info.Tags, err = exifFields(x)
		if err != nil {
			logger.Debug("exif walk failed", "path", abs, "error", err)
		}
		if thumb, err := x.JpegThumbnail(); err == nil && len(thumb) > 0 {
			info.HasThumbnail = true
		}
	} else {
		logger.Debug("no exif data", "path", abs, "error", err)
	}

	return info, nil
}

// DetectMIME sniffs the content type and falls back to the extension when
// the content is not recognized as an image.
func DetectMIME(path string) string {
	if mime, err := scanner.Sniff(path); err == nil && scanner.IsImageType(mime) {
		return mime
	} else if err != nil {
		logger.Warn("content probe failed", "path", path, "error", err)
	}
	return MIMEFromExtension(path)
}

// MIMEFromExtension maps a file extension to a MIME type.
func MIMEFromExtension(path string) string {
	if mime, ok := extensionMIME[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return UnknownMIME
}

// Dimensions decodes only the image header.
func Dimensions(path string) (width, height int, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode header: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// Exif returns the capture time and every EXIF field as text, sorted by name.
func Exif(path string) (time.Time, []Tag, error) {
	x, err := decodeExif(path)
	if err != nil {
		return time.Time{}, nil, err
	}
	return exifFields(x)
}

func decodeExif(path string) (*exif.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return exif.Decode(f)
}

func exifFields(x *exif.Exif) (time.Time, []Tag, error) {
	var c collector
	if err := x.Walk(&c); err != nil {
		return time.Time{}, nil, err
	}
	slices.SortFunc(c.tags, func(a, b Tag) int { return strings.Compare(a.Name, b.Name) })

	taken, err := x.DateTime()
	if err != nil {
		taken = time.Time{}
	}
	return taken, c.tags, nil
}

type collector struct {
	tags []Tag
}

func (c *collector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c.tags = append(c.tags, Tag{Name: string(name), Value: strings.Trim(tag.String(), `"`)})
	return nil
}
