// Package asset creates destination assets from source media, reusing an
// existing asset whenever one with the same file name is already present.
package asset

import (
	"context"
	"net/url"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/lherron/pressmigrate/internal/domain"
	"github.com/lherron/pressmigrate/internal/naturalkey"
	"github.com/lherron/pressmigrate/internal/richtext"
)

var logger = loggo.GetLogger("pressmigrate.asset")

// Downloader fetches source media bytes
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Creator is the destination side of asset creation
type Creator interface {
	CreateAsset(ctx context.Context, fileName string) (string, domain.UploadTicket, error)
	UpdateAssetMetadata(ctx context.Context, id, altText, caption string) error
}

// Uploader sends bytes to an upload ticket target
type Uploader interface {
	Upload(ctx context.Context, ticket domain.UploadTicket, fileName string, data []byte) error
}

// Result describes one materialization attempt
type Result struct {
	ID       string
	FileName string
	Reused   bool
	Err      error
}

// OK reports whether the result carries a usable asset id
func (r Result) OK() bool {
	return r.Err == nil && r.ID != ""
}

// Materializer turns source media into destination assets. A Materializer
// serves one run and is not safe for concurrent use.
type Materializer struct {
	source   Downloader
	dest     Creator
	uploader Uploader

	// file names whose destination record was created but never finished
	abandoned map[string]error
}

// New creates a Materializer
func New(source Downloader, dest Creator, uploader Uploader) *Materializer {
	return &Materializer{source: source, dest: dest, uploader: uploader, abandoned: make(map[string]error)}
}

// FileName derives the asset file name from the last segment of a media
// URL's path, kept percent-encoded
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.NotValidf("media URL %q", rawURL)
	}
	name := path.Base(u.EscapedPath())
	if name == "." || name == "/" || name == "" {
		return "", errors.NotValidf("file name in media URL %q", rawURL)
	}
	return name, nil
}

// Materialize returns the destination id for media, creating and uploading
// the asset when no asset with the same file name exists. Once the file is
// uploaded its name is added to existing, so later posts reuse it even if
// the metadata update failed. A file name whose record was created but not
// uploaded is never attempted again by this Materializer.
func (m *Materializer) Materialize(ctx context.Context, media domain.SourceMedia, existing *naturalkey.Index) Result {
	fileName, err := FileName(media.SourceURL)
	if err != nil {
		logger.Warningf("skipping asset: %v", err)
		return Result{Err: err}
	}
	res := Result{FileName: fileName}

	if id, ok := existing.Lookup(fileName); ok {
		logger.Debugf("asset %s already exists as %s", fileName, id)
		res.ID = id
		res.Reused = true
		return res
	}
	if cause, ok := m.abandoned[fileName]; ok {
		res.Err = errors.Errorf("asset %s already failed in this run: %v", fileName, cause)
		return res
	}

	data, err := m.source.Download(ctx, media.SourceURL)
	if err != nil {
		res.Err = errors.Annotatef(err, "downloading asset %s", fileName)
		logger.Errorf("%v", res.Err)
		return res
	}

	id, ticket, err := m.dest.CreateAsset(ctx, fileName)
	if err != nil {
		res.Err = errors.Annotatef(err, "creating asset %s", fileName)
		logger.Errorf("%v", res.Err)
		return res
	}
	if ticket.URL == "" {
		res.Err = errors.Errorf("asset %s (%s): destination returned no upload ticket", fileName, id)
		m.abandon(fileName, res.Err)
		return res
	}

	if err := m.uploader.Upload(ctx, ticket, fileName, data); err != nil {
		// the draft record stays behind without a file
		res.Err = errors.Annotatef(err, "uploading asset %s (%s)", fileName, id)
		m.abandon(fileName, res.Err)
		return res
	}
	existing.Put(fileName, id)

	caption := richtext.StripTags(media.CaptionHTML)
	if err := m.dest.UpdateAssetMetadata(ctx, id, media.AltText, caption); err != nil {
		res.Err = errors.Annotatef(err, "updating metadata of asset %s (%s)", fileName, id)
		logger.Errorf("%v", res.Err)
		return res
	}

	logger.Infof("created asset %s -> %s (%s)", fileName, id, humanize.Bytes(uint64(len(data))))
	res.ID = id
	return res
}

func (m *Materializer) abandon(fileName string, err error) {
	logger.Errorf("%v", err)
	m.abandoned[fileName] = err
}
