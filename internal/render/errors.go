package render

import "errors"

var (
	// ErrRender reports that no document could be produced.
	// Nothing is written when a render fails with this error.
	ErrRender = errors.New("render: document generation failed")

	// ErrAsset reports a branding asset that could not be used.
	// Rendering continues without it.
	ErrAsset = errors.New("render: branding asset unavailable")
)
