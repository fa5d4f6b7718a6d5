package main

import (
	"diningsync/cmd/diningsync/cmd"
	"diningsync/lib/osutil"
	"diningsync/lib/serviceutil"
	"diningsync/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	err := serviceutil.LoadDotenv(".env", ".env.local")
	if err != nil {
		serviceutil.Fatal("failed to load .env", err)
	}

	cmd.Execute(osutil.SignalContext())
}
