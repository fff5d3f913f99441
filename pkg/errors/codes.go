package errors

// JSON-RPC 2.0 Standard Error Codes
const (
	// CodeParseError indicates invalid JSON was received
	CodeParseError int = -32700

	// CodeInvalidRequest indicates the JSON sent is not a valid Request object
	CodeInvalidRequest int = -32600

	// CodeMethodNotFound indicates the method does not exist / is not available
	CodeMethodNotFound int = -32601

	// CodeInvalidParams indicates invalid method parameter(s)
	CodeInvalidParams int = -32602

	// CodeInternalError indicates internal JSON-RPC error
	CodeInternalError int = -32603
)

// Client-specific error codes, kept inside the implementation-defined
// -32000..-32099 band so they never collide with server-reported codes
// outside it.
const (
	// Configuration errors (-32000 to -32009)
	CodeConfigInvalid       int = -32000 // Bad or contradictory connection parameters
	CodeConfigFileNotFound  int = -32001 // Config file absent at explicit path or on search path
	CodeServerNameUnknown   int = -32002 // Requested server name missing from config
	CodeServerAlreadyExists int = -32003 // Registry already holds a session under this name
	CodeServerNotConnected  int = -32004 // Registry has no session under this name

	// Transport errors (-32010 to -32019)
	CodeConnectionFailed int = -32010 // Channel could not be opened
	CodeConnectionClosed int = -32011 // Channel lost during operation

	// Timing errors (-32020 to -32029)
	CodeTimeout   int = -32020 // Handshake or call exceeded its budget
	CodeCancelled int = -32021 // In-flight operation cancelled by caller

	// Data errors (-32030 to -32039)
	CodeDataInvalid int = -32030 // Malformed config or response payload

	// State errors (-32040 to -32049)
	CodeInvalidState int = -32040 // Operation attempted outside Ready
)
