package app

import (
	"strings"

	"kestrel/hal"
)

func installPanicHandler(b hal.Backend) {
	b.SetPanicHandler(func(msg string) {
		con := b.Console()
		if con == nil {
			return
		}
		con.WriteLineString("Kestrel Panic: " + msg)
		stack := captureStack()
		if len(stack) == 0 {
			con.WriteLineString("stack: unavailable")
			return
		}
		con.WriteLineString("stack:")
		for _, line := range strings.Split(string(stack), "\n") {
			if line == "" {
				continue
			}
			con.WriteLineString(line)
		}
	})
}
