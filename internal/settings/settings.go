package settings

import "fmt"

const CmdName = "ctrack-demo"

var (
	PidFile        = fmt.Sprintf("/tmp/%s.pid", CmdName)
	LogFile        = fmt.Sprintf("/tmp/%s.log", CmdName)
	ReadySockFile  = fmt.Sprintf("/tmp/%s.sock", CmdName)
	ReportFileName = fmt.Sprintf("%s-report.json", CmdName)
	EventsFileName = fmt.Sprintf("%s-events.bin", CmdName)
)
