package hcs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ResultCode is an HRESULT returned by the host compute service.
type ResultCode uint32

// Result codes seen in practice. Anything else prints as hex.
const (
	ResultUnexpected       ResultCode = 0x8000FFFF
	ResultAccessDenied     ResultCode = 0x80070005
	ResultInvalidArg       ResultCode = 0x80070057
	ResultFileNotFound     ResultCode = 0x80070002
	ResultPathNotFound     ResultCode = 0x80070003
	ResultNotSupported     ResultCode = 0x80070032
	ResultOperationPending ResultCode = 0xC0370103
	ResultInvalidState     ResultCode = 0xC0370105
	ResultUnexpectedExit   ResultCode = 0xC0370106
	ResultUnknownMessage   ResultCode = 0xC037010B
	ResultInvalidJSON      ResultCode = 0xC037010D
	ResultSystemNotFound   ResultCode = 0xC037010E
	ResultAlreadyStopped   ResultCode = 0xC0370110
)

var resultNames = map[ResultCode]string{
	ResultUnexpected:       "E_UNEXPECTED",
	ResultAccessDenied:     "E_ACCESSDENIED",
	ResultInvalidArg:       "E_INVALIDARG",
	ResultFileNotFound:     "ERROR_FILE_NOT_FOUND",
	ResultPathNotFound:     "ERROR_PATH_NOT_FOUND",
	ResultNotSupported:     "ERROR_NOT_SUPPORTED",
	ResultOperationPending: "HCS_E_OPERATION_PENDING",
	ResultInvalidState:     "HCS_E_INVALID_STATE",
	ResultUnexpectedExit:   "HCS_E_UNEXPECTED_EXIT",
	ResultUnknownMessage:   "HCS_E_UNKNOWN_MESSAGE",
	ResultInvalidJSON:      "HCS_E_INVALID_JSON",
	ResultSystemNotFound:   "HCS_E_SYSTEM_NOT_FOUND",
	ResultAlreadyStopped:   "HCS_E_SYSTEM_ALREADY_STOPPED",
}

func (c ResultCode) Error() string {
	if name, ok := resultNames[c]; ok {
		return fmt.Sprintf("%s (0x%08X)", name, uint32(c))
	}
	return fmt.Sprintf("hresult 0x%08X", uint32(c))
}

// Failed reports whether the code is an HRESULT failure.
func (c ResultCode) Failed() bool {
	return int32(c) < 0
}

var (
	// ErrOperationAlloc is returned when the service refuses a new operation.
	ErrOperationAlloc = errors.New("hcs: failed to allocate operation")
	// ErrMissingRuntimeID is returned when the properties document has no RuntimeId.
	ErrMissingRuntimeID = errors.New("hcs: properties response has no RuntimeId")
)

// OperationError is an asynchronous failure reported through an operation
// callback. Detail is the service's diagnostic document, verbatim.
type OperationError struct {
	Code   ResultCode
	Detail string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("hcs operation failed: %v", e.Code)
}

func (e *OperationError) Unwrap() error {
	return e.Code
}

// PrettyDetail returns the diagnostic document indented for display. It
// reports false when the detail is empty or not JSON.
func (e *OperationError) PrettyDetail() (string, bool) {
	return prettyJSON(e.Detail)
}

func prettyJSON(doc string) (string, bool) {
	if doc == "" || !json.Valid([]byte(doc)) {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(doc), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}
