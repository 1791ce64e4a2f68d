package main

import (
	"github.com/labstack/gommon/color"
	"github.com/myhippo/transcriber/internal/app/worker"
)

func main() {
	printBanner()
	worker.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
    __    _
   / /_  (_)___  ____  ____
  / __ \/ / __ \/ __ \/ __ \
 / / / / / /_/ / /_/ / /_/ /
/_/ /_/_/ .___/ .___/\____/
       /_/   /_/
                      __
 _      ______  _____/ /_____  _____
| | /| / / __ \/ ___/ //_/ _ \/ ___/
| |/ |/ / /_/ / /  / ,< /  __/ /
|__/|__/\____/_/  /_/|_|\___/_/   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/myhippo/transcriber"))
}
