package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yiblet/clipper/internal/access"
	"github.com/yiblet/clipper/internal/clipboard"
	"github.com/yiblet/clipper/internal/clipboard/mockboard"
	"github.com/yiblet/clipper/internal/engine"
	"github.com/yiblet/clipper/internal/events"
	"github.com/yiblet/clipper/internal/inject"
	"github.com/yiblet/clipper/internal/logging"
	"github.com/yiblet/clipper/internal/store"
)

// printKeys stands in for the OS paste keystroke.
type printKeys struct{}

func (printKeys) Paste(context.Context) error {
	fmt.Println("   <paste keystroke>")
	return nil
}

type noFocus struct{}

func (noFocus) Remember() error               { return nil }
func (noFocus) Restore(context.Context) error { return nil }

func main() {
	fmt.Println("clipper engine demo (mock clipboard, history limit 3)")

	logger := logging.New(os.Stderr, logging.FormatText, logging.ParseLevel("warn"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(engine.Options{HistoryLimit: 3, Logger: logger})
	defer eng.Close()

	sub := eng.Bus().Subscribe(64)
	go func() {
		for ev := range sub.C() {
			if hc, ok := ev.(events.HistoryChanged); ok {
				fmt.Printf("   event: %s\n", hc.Reason)
			}
		}
	}()

	board := mockboard.New()
	watcher := clipboard.NewWatcher(board, eng, clipboard.WatcherOptions{
		Interval: 10 * time.Millisecond,
		Logger:   logger,
	})
	go watcher.Run(ctx)

	injector := inject.New(inject.Options{
		Board:      board,
		Selector:   eng,
		Keystroker: printKeys{},
		Focus:      noFocus{},
		Checker:    access.Granted(),
		Logger:     logger,
	})

	testContent := []string{
		"Hello, World! This is the first copy.",
		"package main\n\nfunc main() {}",
		"SELECT * FROM users ORDER BY created_at DESC LIMIT 10;",
	}

	fmt.Println("\nCopying three items:")
	for _, content := range testContent {
		copyAndWait(eng, board, content)
	}
	show(eng)

	oldest := eng.List(store.ListOptions{})[2]
	fmt.Printf("\nPinning %q\n", engine.Preview(oldest, 40))
	if err := eng.Pin(oldest.ID); err != nil {
		log.Fatalf("Failed to pin: %v", err)
	}

	fmt.Println("\nCopying two more items (the pinned one survives):")
	copyAndWait(eng, board, "#!/bin/bash\necho hi")
	copyAndWait(eng, board, "Lorem ipsum dolor sit amet")
	show(eng)

	fmt.Println("\nCopying the SQL again (deduplicated, moved to the top):")
	copyAndWait(eng, board, testContent[2])
	show(eng)

	third := eng.List(store.ListOptions{})[3]
	fmt.Printf("\nPasting %q\n", engine.Preview(third, 40))
	if _, err := injector.Paste(ctx, third.ID); err != nil {
		log.Fatalf("Failed to paste: %v", err)
	}
	show(eng)

	fmt.Println("\nSearching for \"LOREM\":")
	for _, e := range eng.Search("LOREM", store.ListOptions{}) {
		fmt.Printf("   %s\n", engine.Preview(e, 60))
	}

	time.Sleep(20 * time.Millisecond)
	fmt.Println("\nDemo complete!")
}

// copyAndWait puts text on the mock clipboard and waits for the watcher to
// pick it up.
func copyAndWait(eng *engine.Engine, board *mockboard.MockBoard, text string) {
	fmt.Printf(" + %s\n", engine.Preview(store.Entry{Kind: store.KindText, Payload: []byte(text)}, 60))
	board.SetText(text, "demo")
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if top := eng.List(store.ListOptions{}); len(top) > 0 && firstUnpinned(top).Text() == text {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	log.Fatalf("watcher did not ingest %q", text)
}

func firstUnpinned(entries []store.Entry) store.Entry {
	for _, e := range entries {
		if !e.Pinned {
			return e
		}
	}
	return store.Entry{}
}

func show(eng *engine.Engine) {
	pinned, unpinned := eng.Counts()
	fmt.Printf("History (%d pinned, %d/%d recent):\n", pinned, unpinned, eng.HistoryLimit())
	for i, e := range eng.List(store.ListOptions{}) {
		marker := " "
		if e.Pinned {
			marker = "*"
		}
		fmt.Printf("   %d %s %s\n", i, marker, engine.Preview(e, 60))
	}
}
