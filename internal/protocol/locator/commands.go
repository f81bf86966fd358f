package locator

// Command texts understood by the locator hardware. These are part of the
// device's fixed SMS protocol and must be sent byte-exact.
const (
	CmdRequestLocation = "777"
	CmdCallBack        = "666"
	CmdRestart         = "999"
	CmdClearMemory     = "445"
	CmdBind            = "000"
)

// Commands maps API-facing action names to the protocol texts for the
// fire-and-forget commands outside the polling protocol.
var Commands = map[string]string{
	"call":         CmdCallBack,
	"restart":      CmdRestart,
	"clear-memory": CmdClearMemory,
	"bind":         CmdBind,
}
