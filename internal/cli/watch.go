package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/zombar/contentlens/internal/extract"
)

const defaultDebounce = 300 * time.Millisecond

func newWatchCmd(o *options) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-analyze a draft every time it is saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			svc, _, err := o.newService(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			analyze := func() {
				text, err := extract.ReadFile(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
					return
				}
				report, err := svc.Analyze(cmd.Context(), text, o.contentType)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
					return
				}
				if err := writeOutput(cmd.OutOrStdout(), o.format, report, reportText(report)); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
				}
			}

			analyze()
			return watchFile(cmd.Context(), path, debounce, analyze)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Quiet period after a save before re-analyzing")
	return cmd
}

// watchFile calls onChange once per burst of writes to path, until ctx is
// cancelled. The parent directory is watched so editors that save by
// rename are still seen.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev, target) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		case <-fire:
			onChange()
		}
	}
}

// relevantEvent keeps writes and creates of the watched file
func relevantEvent(ev fsnotify.Event, target string) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
