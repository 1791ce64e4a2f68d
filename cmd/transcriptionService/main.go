package main

import (
	"github.com/labstack/gommon/color"
	"github.com/myhippo/transcriber/internal/app/transcription"
)

func main() {
	printBanner()
	transcription.Execute()
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
   ____ _____  (_)
  / __ ` + "`" + `/ __ \/ /
 / /_/ / /_/ / /
 \__,_/ .___/_/   v: %s
     /_/
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/myhippo/transcriber"))
}
