package ui

import (
	"github.com/pterm/pterm"
)

func PrintBanner(version string) {
	logo := `
    ______                __              
   / __/ /___ _      __  / /_____ _____ _
  / /_/ / __ \ | /| / / / __/ __ ` + "`" + `/ __ ` + "`" + `/
 / __/ / /_/ / |/ |/ / / /_/ /_/ / /_/ / 
/_/ /_/\____/|__/|__/  \__/\__,_/\__, /  
                                /____/   
`
	pterm.FgCyan.Println(logo)
	pterm.DefaultCenter.Println(pterm.FgGray.Sprint(version + " - VPC Flow Log tagger"))
	pterm.Println()
}
