package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/store"
	"github.com/yiblet/clipper/internal/tui"
)

func main() {
	fmt.Println("Checking overlay layout")
	fmt.Println("=======================")

	eng := engine.New(engine.Options{HistoryLimit: 50})
	samples := []string{
		"Hello, World!",
		"package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"Hello, Go!\")\n}",
		"a very long line that keeps going well past the width of the list pane so the preview has to be truncated",
		"日本語のテキストと絵文字 🎉",
		"   \n\n   ",
	}
	for _, s := range samples {
		if err := eng.Ingest(context.Background(), clipboard.Payload{Kind: store.KindText, Data: []byte(s)}); err != nil {
			log.Fatalf("Failed to ingest sample: %v", err)
		}
	}

	model := tui.NewAppModel(tui.Options{History: eng, Visible: true, Hotkey: "cmd+option+v"})
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 20})

	lines := strings.Split(model.View(), "\n")
	fmt.Printf("Rendered view (%d lines):\n", len(lines))
	fmt.Println(strings.Repeat("=", 120))
	for i, line := range lines {
		fmt.Printf("Line %2d: %s\n", i, line)
	}
	fmt.Println(strings.Repeat("=", 120))

	// Rows between the top and bottom borders carry four vertical borders.
	broken := 0
	for i, line := range lines[1 : len(lines)-3] {
		if n := strings.Count(line, "│"); n != 4 {
			fmt.Printf("Line %2d has %d border characters\n", i+1, n)
			broken++
		}
	}

	if broken > 0 {
		log.Fatalf("%d rows with broken borders", broken)
	}
	fmt.Println("\nAll pane borders intact.")
}
