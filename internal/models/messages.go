package models

// ErrorCode is the outcome reported back to a requester.
type ErrorCode uint32

const (
	CodeOK ErrorCode = iota
	CodeEmptyContent
	CodeRangeValue
	CodeMalformedInput
	CodeMissingRequiredField
	CodeIDTransInvalid
	CodeIndexOutOfRange
	CodeChecksumMismatch
	CodeIntegrityFailed
)

var codeDescriptions = map[ErrorCode]string{
	CodeOK:                   "OK",
	CodeEmptyContent:         "Empty content",
	CodeRangeValue:           "Value out of range",
	CodeMalformedInput:       "Malformed input",
	CodeMissingRequiredField: "Missing required field",
	CodeIDTransInvalid:       "Invalid transaction id",
	CodeIndexOutOfRange:      "Index out of range",
	CodeChecksumMismatch:     "Checksum mismatch",
	CodeIntegrityFailed:      "Integrity check failed",
}

func (c ErrorCode) String() string {
	if d, ok := codeDescriptions[c]; ok {
		return d
	}
	return "Unknown error"
}

type GetRequest struct {
	IDTrans uint32
	Err     ErrorCode
}

type ConfigSetRequest struct {
	IDTrans uint32
	Keys    KeyMask
	Config  Config
	Err     ErrorCode
}

type ValueSetRequest struct {
	IDTrans uint32
	// signed so out of range requests survive decoding
	Value int
	Err   ErrorCode
}

type ConfigResponse struct {
	IDTrans uint32
	Err     ErrorCode
	Config  Config
}

type StatusResponse struct {
	IDTrans uint32
	Err     ErrorCode
	Status  Status
}

// an unsolicited status update
type Notification struct {
	Timestamp int64
	Status    Status
}
