package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	journal "github.com/relayq/journal"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <journal-file>",
		Short: "Tail a journal file, printing each Add item as it is appended",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			j, err := journal.Open(path, journalOptions())
			if err != nil {
				return err
			}
			defer j.Close()

			if err := j.StartReadBehindAt(0); err != nil {
				return err
			}
			defer j.StopReadBehind()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("journalctl: watch: %w", err)
			}
			defer watcher.Close()

			dir := filepath.Dir(path)
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("journalctl: watch %s: %w", dir, err)
			}

			out := cmd.OutOrStdout()
			drain := func() error {
				for {
					_, err := j.FillReadBehind(func(item journal.Item) error {
						fmt.Fprintf(out, "add add_time=%d expiry=%d bytes=%d\n", item.AddTime, item.Expiry, len(item.Data))
						return nil
					})
					if err != nil {
						return err
					}
					if !j.InReadBehind() {
						// Caught up; a fresh cursor starts on the next
						// write event.
						return nil
					}
				}
			}

			if err := drain(); err != nil {
				return err
			}

			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Name != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
						continue
					}
					if !j.InReadBehind() {
						if err := j.StartReadBehind(); err != nil {
							return err
						}
					}
					if err := drain(); err != nil {
						return err
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					return fmt.Errorf("journalctl: watch: %w", err)
				case <-time.After(30 * time.Second):
					// Idle heartbeat; keeps the command from looking hung
					// on a quiet journal.
				}
			}
		},
	}
	return cmd
}
