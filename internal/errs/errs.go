// Package errs provides a toolkit for defining domain error kinds, the
// way the teacher's registry/api/errcode package defines HTTP API error
// codes: each kind is registered once at init time into a process-wide
// table, giving every error a stable identity distinct from its message
// text, which callers can switch on with errors.Is/errors.As.
package errs

import (
	"fmt"
	"sync"
)

// Kind identifies one of the domain error conditions from the
// specification's error handling design (ResolveError, PackError, ...).
type Kind string

const (
	ResolveError        Kind = "RESOLVE_ERROR"
	PackError           Kind = "PACK_ERROR"
	CompressionError    Kind = "COMPRESSION_ERROR"
	DecompressionError  Kind = "DECOMPRESSION_ERROR"
	IOError             Kind = "IO_ERROR"
	MissingBlob         Kind = "MISSING_BLOB"
	UnknownFormat       Kind = "UNKNOWN_FORMAT"
	MemberNotFound      Kind = "MEMBER_NOT_FOUND"
	MemoryLimit         Kind = "MEMORY_LIMIT"
	IntegrityViolation  Kind = "INTEGRITY_VIOLATION"
	BrokenChain         Kind = "BROKEN_CHAIN"
	CycleError          Kind = "CYCLE_ERROR"
	InstallError        Kind = "INSTALL_ERROR"
)

// Descriptor documents one registered kind.
type Descriptor struct {
	Kind    Kind
	Message string
}

var (
	registerMu sync.Mutex
	registry   = map[Kind]Descriptor{}
)

func register(d Descriptor) Kind {
	registerMu.Lock()
	defer registerMu.Unlock()

	if _, exists := registry[d.Kind]; exists {
		panic(fmt.Sprintf("errs: kind %q already registered", d.Kind))
	}
	registry[d.Kind] = d
	return d.Kind
}

func init() {
	for _, d := range []Descriptor{
		{ResolveError, "required environment or user directory could not be resolved"},
		{PackError, "unable to read or archive a source path"},
		{CompressionError, "compression of packaged data failed"},
		{DecompressionError, "decompression of a blob payload failed"},
		{IOError, "underlying filesystem operation failed"},
		{MissingBlob, "manifest entry references an absent blob id"},
		{UnknownFormat, "blob format is not one of tar, tar.zst"},
		{MemberNotFound, "named tar member is absent from the blob"},
		{MemoryLimit, "estimated operation size exceeds the configured memory budget"},
		{IntegrityViolation, "a chain or blob hash recomputation mismatched storage"},
		{BrokenChain, "snapshot chain reference could not be resolved"},
		{CycleError, "snapshot chain walk revisited an already-visited snapshot"},
		{InstallError, "external installer reported failure"},
	} {
		register(d)
	}
}

// Descriptors returns every registered descriptor, for diagnostics/help
// text — mirroring errcode.GetErrorAllDescriptors.
func Descriptors() []Descriptor {
	registerMu.Lock()
	defer registerMu.Unlock()
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	return out
}

// Error is a domain error carrying a Kind, a contextual message, and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	d, ok := registry[e.Kind]
	msg := string(e.Kind)
	if ok {
		msg = d.Message
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Context)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, errs.MissingBlob) style comparisons by
// treating a bare Kind value as a sentinel matching any *Error with that
// Kind. Since Kind isn't itself an error, callers instead use Is(err, k).
func Is(err error, k Kind) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == k
}

// New builds a *Error of the given kind with a contextual message.
func New(k Kind, context string) *Error {
	return &Error{Kind: k, Context: context}
}

// Wrap builds a *Error of the given kind wrapping cause, with a
// contextual message.
func Wrap(k Kind, context string, cause error) *Error {
	return &Error{Kind: k, Context: context, Cause: cause}
}
