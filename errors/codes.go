package errors

import (
	stderrors "errors"
	"fmt"
)

// Numeric status codes. Zero is success; every failure is CodeBase or above.
const (
	CodeOK   uint32 = 0
	CodeBase uint32 = 256

	CodeInvalidDeviceID       = CodeBase + 1
	CodeUnrecognizedKeyword   = CodeBase + 3
	CodeUnrecognizedCommand   = CodeBase + 5
	CodeHardware              = CodeBase + 6
	CodeInvalidDeviceName     = CodeBase + 7
	CodeOutOfMemory           = CodeBase + 8
	CodeDeviceOpen            = CodeBase + 9
	CodeCannotLoadDriver      = CodeBase + 10
	CodeMissingCommandString  = CodeBase + 11
	CodeParamOverflow         = CodeBase + 12
	CodeMissingStringArgument = CodeBase + 13
	CodeBadInteger            = CodeBase + 14
	CodeParserInternal        = CodeBase + 15
	CodeDriverInternal        = CodeBase + 16
	CodeMissingParameter      = CodeBase + 17
	CodeUnsupportedFunction   = CodeBase + 18
	CodeFileNotFound          = CodeBase + 19
	CodeDeviceNotReady        = CodeBase + 20
	CodeInternal              = CodeBase + 21
	CodeDriver                = CodeBase + 22
	CodeCannotUseAll          = CodeBase + 23
	CodeMultiple              = CodeBase + 24
	CodeExtensionNotFound     = CodeBase + 25
	CodeOutOfRange            = CodeBase + 26
	CodeFlagsNotCompatible    = CodeBase + 28
	CodeFileNotSaved          = CodeBase + 30
	CodeDeviceTypeRequired    = CodeBase + 31
	CodeDeviceLocked          = CodeBase + 32
	CodeDuplicateAlias        = CodeBase + 33
	CodeBadConstant           = CodeBase + 34
	CodeMustUseShareable      = CodeBase + 35
	CodeMissingDeviceName     = CodeBase + 36
	CodeBadTimeFormat         = CodeBase + 37
	CodeNoClosingQuote        = CodeBase + 38
	CodeDuplicateFlags        = CodeBase + 39
	CodeInvalidFile           = CodeBase + 40
	CodeNullParameterBlock    = CodeBase + 41
	CodeUnnamedResource       = CodeBase + 42
	CodeNewRequiresAlias      = CodeBase + 43
	CodeNotifyOnAutoOpen      = CodeBase + 44
	CodeNoElementAllowed      = CodeBase + 45
	CodeNonApplicableFunction = CodeBase + 46
	CodeIllegalForAutoOpen    = CodeBase + 47
	CodeFilenameRequired      = CodeBase + 48
	CodeExtraCharacters       = CodeBase + 49
	CodeDeviceNotInstalled    = CodeBase + 50
	CodeInvalidCommandTable   = CodeBase + 74
	CodeCustomDriverBase      = CodeBase + 256

	codeLowWordMask = 0xFFFF
)

var kindCodes = map[Kind]uint32{
	KindInvalidDeviceID:     CodeInvalidDeviceID,
	KindUnrecognizedCommand: CodeUnrecognizedCommand,
	KindMissingDeviceName:   CodeMissingDeviceName,
	KindExtraCharacters:     CodeExtraCharacters,
	KindNoClosingQuote:      CodeNoClosingQuote,
	KindBadInteger:          CodeBadInteger,
	KindParamOverflow:       CodeParamOverflow,
	KindOutOfMemory:         CodeOutOfMemory,
	KindDeviceNotInstalled:  CodeDeviceNotInstalled,
	KindExtensionNotFound:   CodeExtensionNotFound,
	KindParserInternal:      CodeParserInternal,
	KindCannotUseAll:        CodeCannotUseAll,
	KindInvalidCommandTable: CodeInvalidCommandTable,
	KindDuplicateAlias:      CodeDuplicateAlias,
	KindMissingParameter:    CodeMissingParameter,
	KindMissingString:       CodeMissingStringArgument,
	KindCannotLoadDriver:    CodeCannotLoadDriver,
	KindNullParameterBlock:  CodeNullParameterBlock,
	KindOutOfBounds:         CodeInternal,
	KindInternal:            CodeInternal,
	KindDriver:              CodeDriver,
}

var codeTexts = map[uint32]string{
	CodeOK:                    "The specified command was carried out.",
	CodeInvalidDeviceID:       "Invalid device ID. Use the ID given to the device when the device was opened.",
	CodeUnrecognizedKeyword:   "The driver cannot recognize the specified command parameter.",
	CodeUnrecognizedCommand:   "The driver cannot recognize the specified command.",
	CodeHardware:              "There is a problem with your media device. Make sure it is working correctly or contact the device manufacturer.",
	CodeInvalidDeviceName:     "The specified device is not open or is not recognized.",
	CodeOutOfMemory:           "There is not enough memory available for this task.",
	CodeDeviceOpen:            "The device name is already being used as an alias by this application. Use a unique alias.",
	CodeCannotLoadDriver:      "The specified device driver will not load properly.",
	CodeMissingCommandString:  "No command was specified.",
	CodeParamOverflow:         "The output string was too large to fit in the return buffer. Increase the size of the buffer.",
	CodeMissingStringArgument: "The specified command requires a character-string parameter. Please provide one.",
	CodeBadInteger:            "The specified integer is invalid for this command.",
	CodeParserInternal:        "The device driver returned an invalid return type. Check with the device manufacturer about obtaining a new driver.",
	CodeDriverInternal:        "There is a problem with the device driver. Check with the device manufacturer about obtaining a new driver.",
	CodeMissingParameter:      "The specified command requires a parameter. Please supply one.",
	CodeUnsupportedFunction:   "The device you are using does not support the specified command.",
	CodeFileNotFound:          "Cannot find the specified file. Make sure the path and filename are correct.",
	CodeDeviceNotReady:        "The device driver is not ready.",
	CodeInternal:              "A problem occurred in initializing the engine. Try restarting.",
	CodeDriver:                "There is a problem with the device driver. The driver has closed. Cannot access error.",
	CodeCannotUseAll:          "Cannot use 'all' as the device name with the specified command.",
	CodeMultiple:              "Errors occurred in more than one device. Specify each command and device separately to determine which devices caused the error.",
	CodeExtensionNotFound:     "Cannot determine the device type from the given filename extension.",
	CodeOutOfRange:            "The specified parameter is out of range for the specified command.",
	CodeFlagsNotCompatible:    "The specified parameters cannot be used together.",
	CodeFileNotSaved:          "Cannot save the specified file. Make sure you have enough disk space or are still connected to the network.",
	CodeDeviceTypeRequired:    "Cannot find the specified device. Make sure it is installed or that the device name is spelled correctly.",
	CodeDeviceLocked:          "The specified device is now being closed. Wait a few seconds, and then try again.",
	CodeDuplicateAlias:        "The specified alias is already being used in this application. Use a unique alias.",
	CodeBadConstant:           "The specified parameter is invalid for this command.",
	CodeMustUseShareable:      "The device driver is already in use. To share it, use the 'shareable' parameter with each 'open' command.",
	CodeMissingDeviceName:     "The specified command requires an alias, file, driver, or device name. Please supply one.",
	CodeBadTimeFormat:         "The specified value for the time format is invalid.",
	CodeNoClosingQuote:        "A closing double-quotation mark is missing from the parameter value. Please supply one.",
	CodeDuplicateFlags:        "A parameter or value was specified twice. Only specify it once.",
	CodeInvalidFile:           "The specified file cannot be played on the specified device. The file may be corrupt, or not in the correct format.",
	CodeNullParameterBlock:    "A null parameter block was passed to the engine.",
	CodeUnnamedResource:       "Cannot save an unnamed file. Supply a filename.",
	CodeNewRequiresAlias:      "You must specify an alias when using the 'new' parameter.",
	CodeNotifyOnAutoOpen:      "Cannot use the 'notify' flag with auto-opened devices.",
	CodeNoElementAllowed:      "Cannot use a filename with the specified device.",
	CodeNonApplicableFunction: "Cannot carry out the commands in the order specified. Correct the command sequence, and then try again.",
	CodeIllegalForAutoOpen:    "Cannot carry out the specified command on an auto-opened device. Wait until the device is closed, and then try again.",
	CodeFilenameRequired:      "The filename is invalid. Make sure the filename is not longer than 8 characters, followed by a period and an extension.",
	CodeExtraCharacters:       "Cannot specify extra characters after a string enclosed in quotation marks.",
	CodeDeviceNotInstalled:    "The specified device is not installed on the system.",
	CodeInvalidCommandTable:   "The command table for this device type is damaged or missing.",
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf maps an error to its numeric status. nil maps to CodeOK.
// Errors outside this package's taxonomy map to CodeInternal.
func CodeOf(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if !stderrors.As(err, &e) {
		return CodeInternal
	}
	if e.Code != 0 {
		return e.Code
	}
	if code, ok := kindCodes[e.Kind]; ok {
		return code
	}
	return CodeInternal
}

// Status returns the low-order status word of a raw result,
// discarding any return-encoding tag in the high word.
func Status(result uint32) uint32 {
	return result & codeLowWordMask
}

// Text returns the human-readable message for a status code.
func Text(code uint32) string {
	code = Status(code)
	if s, ok := codeTexts[code]; ok {
		return s
	}
	if code >= CodeCustomDriverBase {
		return fmt.Sprintf("Driver specific error %d", code-CodeCustomDriverBase)
	}
	return "Unknown error"
}
