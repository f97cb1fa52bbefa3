package publish

import (
	"context"

	"git.home.luguber.info/inful/sitepipe/internal/site"
)

// Receipt is the target's confirmation of an accepted artifact.
type Receipt struct {
	Location string // where the live version is served from
	Revision string // target-specific id of the new live version
}

// Target is a hosting destination. Transfer must make the new version live
// atomically and return only after the target confirms it; on error the
// previous live version must be untouched.
type Target interface {
	Name() string
	Transfer(ctx context.Context, art *site.Artifact, b *Bundle) (*Receipt, error)
}
