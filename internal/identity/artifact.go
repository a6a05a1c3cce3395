// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package identity handles the best-effort identity evidence attached to a
// ballot: a proof image and a location snapshot. Nothing here may block a
// vote; every failure degrades to "no evidence".
package identity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxArtifactSize bounds a decoded proof image.
const MaxArtifactSize = 5 << 20

// ErrInvalidArtifact is returned for data URLs that cannot be decoded.
var ErrInvalidArtifact = errors.New("invalid identity proof")

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Artifact is a captured identity proof.
type Artifact struct {
	Data        []byte
	ContentType string
}

// Ext returns the file extension matching the content type.
func (a *Artifact) Ext() string {
	if ext, ok := extensions[a.ContentType]; ok {
		return ext
	}
	return "bin"
}

// DecodeDataURL decodes a base64 image data URL as produced by a browser
// canvas capture, e.g. "data:image/jpeg;base64,/9j/4AAQ...".
func DecodeDataURL(s string) (*Artifact, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidArtifact)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidArtifact)
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, fmt.Errorf("%w: not base64 encoded", ErrInvalidArtifact)
	}
	if _, known := extensions[contentType]; !known {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidArtifact, contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxArtifactSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidArtifact, MaxArtifactSize)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidArtifact)
	}

	return &Artifact{Data: data, ContentType: contentType}, nil
}
