package sqliteengine

import (
	"context"
	"database/sql"

	"github.com/jackc/pgerrcode"

	"github.com/pgbridge/pgbridge/pkg/engine"
	"github.com/pgbridge/pgbridge/pkg/pgerror"
	"github.com/pgbridge/pgbridge/pkg/rowio"
)

// selectPortal streams a SELECT's rows through rowio.Adapt. Its fields
// may already be known (engine.Prepare resolved them) or may still be
// empty, in which case Adapt populates them from the driver's column
// metadata the first time Fetch runs — the lazy-schema path spec.md §9
// tolerates.
type selectPortal struct {
	rows *sql.Rows
}

var _ engine.Portal = (*selectPortal)(nil)

func (p *selectPortal) Fetch(ctx context.Context, w engine.Writer) error {
	defer p.rows.Close()
	rw, ok := w.(*rowio.Writer)
	if !ok {
		return pgerror.New(pgerrcode.FeatureNotSupported, "sqliteengine requires a rowio.Writer")
	}
	if err := rowio.Adapt(p.rows, rw); err != nil {
		return err
	}
	return pgerror.WithCode(p.rows.Err(), pgerrcode.DataException)
}

// Close releases the portal's rows whether or not Fetch ever ran.
// *sql.Rows.Close is safe to call multiple times, so this is also safe to
// call after Fetch already closed it.
func (p *selectPortal) Close() error {
	return p.rows.Close()
}

// tagPortal is used for statements that don't return rows (DML, and
// transaction control). Fetch is a no-op; the session reads the
// CommandTag back out via engine.CommandTagger.
type tagPortal struct {
	tag string
}

var _ engine.Portal = (*tagPortal)(nil)
var _ engine.CommandTagger = (*tagPortal)(nil)

func (p *tagPortal) Fetch(ctx context.Context, w engine.Writer) error {
	w.SetFields(nil)
	return nil
}

func (p *tagPortal) Close() error { return nil }

func (p *tagPortal) CommandTag() string { return p.tag }
