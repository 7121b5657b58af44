package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // command string tokenizing and option parsing
	PhaseTable    Phase = "table"    // command table decoding and lookup
	PhaseRegistry Phase = "registry" // session open/close/lookup
	PhaseMarshal  Phase = "marshal"  // parameter block transcoding
	PhaseDispatch Phase = "dispatch" // message routing
	PhaseDriver   Phase = "driver"   // inside a driver call
	PhaseFormat   Phase = "format"   // result rendering
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidDeviceID     Kind = "invalid_device_id"
	KindUnrecognizedCommand Kind = "unrecognized_command"
	KindMissingDeviceName   Kind = "missing_device_name"
	KindExtraCharacters     Kind = "extra_characters"
	KindNoClosingQuote      Kind = "no_closing_quote"
	KindBadInteger          Kind = "bad_integer"
	KindParamOverflow       Kind = "param_overflow"
	KindOutOfMemory         Kind = "out_of_memory"
	KindDeviceNotInstalled  Kind = "device_not_installed"
	KindExtensionNotFound   Kind = "extension_not_found"
	KindParserInternal      Kind = "parser_internal"
	KindCannotUseAll        Kind = "cannot_use_all"
	KindInvalidCommandTable Kind = "invalid_command_table"
	KindDuplicateAlias      Kind = "duplicate_alias"
	KindMissingParameter    Kind = "missing_parameter"
	KindMissingString       Kind = "missing_string"
	KindCannotLoadDriver    Kind = "cannot_load_driver"
	KindNullParameterBlock  Kind = "null_parameter_block"
	KindOutOfBounds         Kind = "out_of_bounds"
	KindInternal            Kind = "internal"
	KindDriver              Kind = "driver"
)

// Error is the structured error type used throughout the engine
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	// Code is the raw numeric status when it did not originate from Kind,
	// e.g. a driver-specific failure passed through unchanged.
	Code uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Code != 0 && e.Kind == KindDriver {
		fmt.Fprintf(&b, " (code %d)", e.Code)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path (verb, keyword, field)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Code sets the raw numeric status
func (b *Builder) Code(code uint32) *Builder {
	b.err.Code = code
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrInvalidDeviceID     = &Error{Kind: KindInvalidDeviceID}
	ErrUnrecognizedCommand = &Error{Kind: KindUnrecognizedCommand}
	ErrBadInteger          = &Error{Kind: KindBadInteger}
	ErrOutOfMemory         = &Error{Kind: KindOutOfMemory}
	ErrParserInternal      = &Error{Kind: KindParserInternal}
	ErrCannotUseAll        = &Error{Kind: KindCannotUseAll}
	ErrInvalidCommandTable = &Error{Kind: KindInvalidCommandTable}
)

// Convenience constructors for common error patterns

// InvalidDeviceID creates an error for a device id or name with no open session
func InvalidDeviceID(phase Phase, device any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidDeviceID,
		Detail: fmt.Sprintf("no open device %v", device),
		Value:  device,
	}
}

// UnrecognizedCommand creates an unknown verb or keyword error
func UnrecognizedCommand(path []string, word string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnrecognizedCommand,
		Path:   path,
		Detail: fmt.Sprintf("unrecognized %q", word),
		Value:  word,
	}
}

// Syntax creates a tokenizer error of the given kind
func Syntax(kind Kind, path []string, text string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   kind,
		Path:   path,
		Detail: fmt.Sprintf("near %q", text),
		Value:  text,
	}
}

// BadInteger creates an integer argument error
func BadInteger(path []string, text string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindBadInteger,
		Path:   path,
		Detail: fmt.Sprintf("expected integer, got %q", text),
		Value:  text,
	}
}

// ParserInternal creates a slot overflow error caused by a malformed table
func ParserInternal(path []string, slot int) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindParserInternal,
		Path:   path,
		Detail: fmt.Sprintf("argument slot %d exceeds parameter block", slot),
		Value:  slot,
	}
}

// InvalidTable creates a command table validation error
func InvalidTable(deviceType string, offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseTable,
		Kind:   KindInvalidCommandTable,
		Path:   []string{deviceType},
		Detail: fmt.Sprintf("offset %d: %s", offset, detail),
		Value:  offset,
	}
}

// OutOfMemory creates an allocation failure error
func OutOfMemory(phase Phase, size, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// OutOfBounds creates an address space access error
func OutOfBounds(phase Phase, addr, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("access [%#x, +%d) out of bounds", addr, length),
		Value:  addr,
	}
}

// DeviceNotInstalled creates an error for a device type with no driver
func DeviceNotInstalled(deviceType string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindDeviceNotInstalled,
		Detail: fmt.Sprintf("device type %q is not installed", deviceType),
		Value:  deviceType,
	}
}

// ExtensionNotFound creates an error for an element with no known device type
func ExtensionNotFound(element string) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindExtensionNotFound,
		Detail: fmt.Sprintf("no device type registered for %q", element),
		Value:  element,
	}
}

// CannotUseAll creates an error for a message that does not accept the all-devices id
func CannotUseAll(message string) *Error {
	return &Error{
		Phase:  PhaseDispatch,
		Kind:   KindCannotUseAll,
		Detail: fmt.Sprintf("%s cannot target all devices", message),
	}
}

// Driver wraps a non-zero driver status so it travels through Go error returns unchanged
func Driver(code uint32) *Error {
	return &Error{
		Phase: PhaseDriver,
		Kind:  KindDriver,
		Code:  code,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
