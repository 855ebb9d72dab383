package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the charter ASCII art banner with the version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Subtle gradient, teal into blue
	s1 := termenv.String("        _                _            ").Foreground(p.Color("#5eead4"))
	s2 := termenv.String("   ___| |__   __ _ _ __| |_ ___ _ __ ").Foreground(p.Color("#2dd4bf"))
	s3 := termenv.String("  / __| '_ \\ / _` | '__| __/ _ \\ '__|").Foreground(p.Color("#22d3ee"))
	s4 := termenv.String(" | (__| | | | (_| | |  | ||  __/ |   ").Foreground(p.Color("#38bdf8"))
	s5 := termenv.String("  \\___|_| |_|\\__,_|_|   \\__\\___|_|   ").Foreground(p.Color("#60a5fa"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Printf("  company formation assistant %s\n", version)
	fmt.Println()
}
