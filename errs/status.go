package errs

import "strconv"

// Status is a status code returned by the storage engine.
//
// The numeric values match the engine's native aku_Status codes so they can be
// cross-referenced with engine documentation and logs.
type Status int32

const (
	StatusSuccess             Status = 0  // StatusSuccess means the operation completed.
	StatusNoData              Status = 1  // StatusNoData means there is no data to return.
	StatusNoMem               Status = 2  // StatusNoMem means the engine ran out of memory.
	StatusBusy                Status = 3  // StatusBusy means the resource is in use by another call.
	StatusNotFound            Status = 4  // StatusNotFound means the requested item does not exist.
	StatusBadArg              Status = 5  // StatusBadArg means an argument was rejected.
	StatusOverflow            Status = 6  // StatusOverflow means a buffer or volume overflowed.
	StatusBadData             Status = 7  // StatusBadData means the input data is malformed.
	StatusGeneral             Status = 8  // StatusGeneral is an unclassified engine failure.
	StatusLateWrite           Status = 9  // StatusLateWrite means the sample is older than the engine accepts.
	StatusNotImplemented      Status = 10 // StatusNotImplemented means the feature is unavailable.
	StatusQueryParsing        Status = 11 // StatusQueryParsing means a query could not be parsed.
	StatusAnotherQueryRunning Status = 12 // StatusAnotherQueryRunning means a query is already active.
	StatusClosed              Status = 13 // StatusClosed means the handle was already closed.
	StatusTimeout             Status = 14 // StatusTimeout means the engine gave up waiting.
	StatusRetry               Status = 15 // StatusRetry means the caller may try again.
	StatusAccess              Status = 16 // StatusAccess means a filesystem permission was denied.
	StatusNotPermitted        Status = 17 // StatusNotPermitted means the operation is not allowed.
	StatusUnavailable         Status = 18 // StatusUnavailable means the resource cannot be reached.
)

var statusNames = map[Status]string{
	StatusSuccess:             "success",
	StatusNoData:              "no data",
	StatusNoMem:               "out of memory",
	StatusBusy:                "busy",
	StatusNotFound:            "not found",
	StatusBadArg:              "bad argument",
	StatusOverflow:            "overflow",
	StatusBadData:             "bad data",
	StatusGeneral:             "general error",
	StatusLateWrite:           "late write",
	StatusNotImplemented:      "not implemented",
	StatusQueryParsing:        "query parsing error",
	StatusAnotherQueryRunning: "another query running",
	StatusClosed:              "closed",
	StatusTimeout:             "timeout",
	StatusRetry:               "retry",
	StatusAccess:              "access denied",
	StatusNotPermitted:        "not permitted",
	StatusUnavailable:         "unavailable",
}

// OK reports whether s is StatusSuccess.
func (s Status) OK() bool {
	return s == StatusSuccess
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return "status " + strconv.FormatInt(int64(s), 10)
}
