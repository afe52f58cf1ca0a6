package command

// Request line prefixes understood by the cell.
const (
	PrefixText   = "TEXT:"        // TEXT:<string to render>
	PrefixDual   = "CONFIG:DUAL=" // CONFIG:DUAL=<0|1>
	PrefixParams = "PARAMS:"      // PARAMS:<JSON parameter document>
)

// Line framing.
const (
	// Terminator ends a request or reply line. CR is accepted on input so
	// hosts sending CRLF work unchanged.
	Terminator = '\n'

	// DefaultMaxLine caps an accumulated request line. Lines longer than
	// this lose their tail (or the whole line, depending on the parser's
	// overflow policy).
	DefaultMaxLine = 1000
)

// Reply line vocabulary emitted by the cell, CSV fields.
const (
	ReplyOK  = "OK"  // OK,<status>[,<fields>...]
	ReplyErr = "ERR" // ERR,<status>[,<fields>...]
	ReplyDbg = "DBG" // DBG,<pattern>,<pulse A>,<pulse B>,<char>

	StatusReady   = "ready"   // OK,ready - boot banner
	StatusDual    = "dual"    // OK,dual,<0|1>
	StatusParams  = "params"  // OK,params,<char delay>,<servo delay>,<dual>,<debug> or ERR,params,<detail>
	StatusUnknown = "unknown" // ERR,unknown,<raw line>
	StatusDrive   = "drive"   // ERR,drive,<channel>,<detail>
)
