//go:build tinygo && baremetal

package main

import (
	"kestrel/app"
	"kestrel/hal"
	"kestrel/kernel"
)

func main() {
	app.Run(hal.New(), app.Config{Kernel: kernel.DefaultConfig()})
}
