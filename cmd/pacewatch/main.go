// Command pacewatch reports file changes in bursts.
//
// Usage:
//
//	pacewatch [-d 300ms] [-r] [dir...]
//
// Every change under the watched directories restarts a quiet period of -d.
// When it elapses, pacewatch prints the distinct paths touched by the burst.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/baxromumarov/pace"
)

func main() {
	delay := flag.Duration("d", 300*time.Millisecond, "quiet period that ends a burst")
	recursive := flag.Bool("r", false, "watch subdirectories too")
	flag.Parse()

	dirs := flag.Args()
	if len(dirs) == 0 {
		dirs = []string{"."}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var watchErr error
	err := pace.Run(ctx, func(s *pace.Scope) {
		watchErr = watch(s, dirs, *delay, *recursive)
	})
	if err := errors.Join(watchErr, err); err != nil {
		log.Fatal(err)
	}
}

func watch(s *pace.Scope, dirs []string, delay time.Duration, recursive bool) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.Defer(func() { _ = fw.Close() })

	w := &watcher{fs: fw, recursive: recursive}
	for _, dir := range dirs {
		if err := w.add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	err = s.Go("errors", func(ctx context.Context) error {
		for {
			select {
			case err, ok := <-fw.Errors:
				if !ok {
					return nil
				}
				log.Printf("watch error: %v", err)
			case <-ctx.Done():
				return nil
			}
		}
	})
	if err != nil {
		return err
	}

	log.Printf("watching %s (quiet period %v)", strings.Join(dirs, ", "), delay)
	for batch := range changes(s.Context(), fw.Events, w.relevant, delay) {
		log.Printf("%d changed: %s", len(batch), strings.Join(batch, " "))
	}
	return nil
}
