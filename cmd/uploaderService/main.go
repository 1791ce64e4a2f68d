package main

import (
	"github.com/labstack/gommon/color"
	"github.com/myhippo/transcriber/internal/app/uploader"
)

func main() {
	printBanner()
	uploader.Execute()
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
               __                __
  __  ______  / /___  ____ _____/ /__  _____
 / / / / __ \/ / __ \/ __ ` + "`" + `/ __  / _ \/ ___/
/ /_/ / /_/ / / /_/ / /_/ / /_/ /  __/ /
\__,_/ .___/_/\____/\__,_/\__,_/\___/_/   v: %s
    /_/
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/myhippo/transcriber"))
}
