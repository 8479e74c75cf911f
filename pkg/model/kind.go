package model

import "strings"

// Kind is the closed enumeration of declared parameter and output types.
type Kind string

const (
	// KindOpaque marks an output field without a declared type.
	KindOpaque  Kind = ""
	KindEnum    Kind = "enum"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindString  Kind = "string"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindFile    Kind = "file"
)

// Kinds lists every declared kind in a stable order. Classifier tests iterate
// this list, so a new constant must be appended here and handled by both
// classifiers.
func Kinds() []Kind {
	return []Kind{
		KindOpaque,
		KindEnum,
		KindInteger,
		KindNumber,
		KindBoolean,
		KindString,
		KindArray,
		KindObject,
		KindFile,
	}
}

// ParseKind normalises a raw schema type. Unknown values are returned as-is so
// the classifiers can report them with UnsupportedTypeError.
func ParseKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// Known reports whether k is a member of the closed enumeration.
func (k Kind) Known() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Numeric reports whether values of this kind are numbers.
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindNumber
}

// MediaKind identifies the media families recognised in descriptions and
// response content types.
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// MediaKinds returns the media families in matching priority order.
func MediaKinds() []MediaKind {
	return []MediaKind{MediaImage, MediaAudio, MediaVideo}
}
