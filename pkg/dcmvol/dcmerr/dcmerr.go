// Package dcmerr defines the exhaustive error taxonomy used across the
// decoder (spec.md §7). Grounded on the teacher repo's validate.go
// ValidationError/ValidationResult accumulation pattern, generalized from
// DICOM-conformance checking into a single typed error with a Kind enum so
// callers can discriminate failures with errors.As instead of string
// matching.
package dcmerr

import "fmt"

// Kind enumerates the exhaustive error categories spec.md §7 names.
type Kind int

const (
	FileNotFound Kind = iota
	ShortRead
	NotDicom
	UnsupportedTransferSyntax
	UnsupportedPixelShape
	InvalidDicomFormat
	Inconsistent
	FailedToDecode
	InvalidArgument
	Cancelled
	IoError
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case ShortRead:
		return "ShortRead"
	case NotDicom:
		return "NotDicom"
	case UnsupportedTransferSyntax:
		return "UnsupportedTransferSyntax"
	case UnsupportedPixelShape:
		return "UnsupportedPixelShape"
	case InvalidDicomFormat:
		return "InvalidDicomFormat"
	case Inconsistent:
		return "Inconsistent"
	case FailedToDecode:
		return "FailedToDecode"
	case InvalidArgument:
		return "InvalidArgument"
	case Cancelled:
		return "Cancelled"
	case IoError:
		return "Io"
	default:
		return "Unknown"
	}
}

// InconsistentKind further qualifies an Inconsistent error, per spec.md §7.
type InconsistentKind int

const (
	Dimensions InconsistentKind = iota
	Orientation
	PixelRepresentation
)

func (k InconsistentKind) String() string {
	switch k {
	case Dimensions:
		return "Dimensions"
	case Orientation:
		return "Orientation"
	case PixelRepresentation:
		return "PixelRepresentation"
	default:
		return "Unknown"
	}
}

// DecodeError is the single error type returned across the decoder's public
// API. Path/UID/Reason/Needed/Available/Offset/Samples/BitDepth are
// populated according to Kind; unused fields are zero.
type DecodeError struct {
	Kind Kind

	Path   string
	UID    string
	Reason string

	Needed, Available, Offset int

	Samples, BitDepth int

	InconsistentKind InconsistentKind

	Wrapped error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case FileNotFound:
		return fmt.Sprintf("file not found: %s", e.Path)
	case ShortRead:
		return fmt.Sprintf("short read at offset %d: needed %d, available %d", e.Offset, e.Needed, e.Available)
	case NotDicom:
		return "not a DICOM file: missing DICM signature"
	case UnsupportedTransferSyntax:
		return fmt.Sprintf("unsupported transfer syntax: %s", e.UID)
	case UnsupportedPixelShape:
		return fmt.Sprintf("unsupported pixel shape: samples=%d bit_depth=%d", e.Samples, e.BitDepth)
	case InvalidDicomFormat:
		return fmt.Sprintf("invalid DICOM format: %s", e.Reason)
	case Inconsistent:
		return fmt.Sprintf("inconsistent %s across series", e.InconsistentKind)
	case FailedToDecode:
		return fmt.Sprintf("failed to decode slice: %s", e.Path)
	case InvalidArgument:
		return fmt.Sprintf("invalid argument: %s", e.Reason)
	case Cancelled:
		return "cancelled"
	case IoError:
		if e.Wrapped != nil {
			return fmt.Sprintf("io error: %v", e.Wrapped)
		}
		return "io error"
	default:
		return "decode error"
	}
}

func (e *DecodeError) Unwrap() error { return e.Wrapped }

// Constructors, one per Kind, mirroring spec.md §7's exhaustive list.

func NewFileNotFound(path string) *DecodeError {
	return &DecodeError{Kind: FileNotFound, Path: path}
}

func NewShortRead(needed, available, offset int) *DecodeError {
	return &DecodeError{Kind: ShortRead, Needed: needed, Available: available, Offset: offset}
}

func NewNotDicom() *DecodeError {
	return &DecodeError{Kind: NotDicom}
}

func NewUnsupportedTransferSyntax(uid string) *DecodeError {
	return &DecodeError{Kind: UnsupportedTransferSyntax, UID: uid}
}

func NewUnsupportedPixelShape(samples, bitDepth int) *DecodeError {
	return &DecodeError{Kind: UnsupportedPixelShape, Samples: samples, BitDepth: bitDepth}
}

func NewInvalidDicomFormat(reason string) *DecodeError {
	return &DecodeError{Kind: InvalidDicomFormat, Reason: reason}
}

func NewInconsistent(kind InconsistentKind) *DecodeError {
	return &DecodeError{Kind: Inconsistent, InconsistentKind: kind}
}

func NewFailedToDecode(path string) *DecodeError {
	return &DecodeError{Kind: FailedToDecode, Path: path}
}

func NewInvalidArgument(reason string) *DecodeError {
	return &DecodeError{Kind: InvalidArgument, Reason: reason}
}

func NewCancelled() *DecodeError {
	return &DecodeError{Kind: Cancelled}
}

func NewIo(wrapped error) *DecodeError {
	return &DecodeError{Kind: IoError, Wrapped: wrapped}
}
