package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/fsmirror/fsmirror/pkg/fileserver/backends"
	"github.com/spf13/cobra"
)

// updateCmd runs one synchronization cycle over every configured backend
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update every configured fileserver backend",
	Long: `Update constructs the states and pillar fileservers from current
configuration and synchronizes every active backend of each.

A failing source never stops its siblings: the run always completes, failed
sources are enumerated in the output and flagged through the exit status.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		registry := fileserver.NewRegistry(cfg, backends.Factories(),
			fileserver.RegistryLogger(logger))
		results, err := fileserver.UpdateAll(ctx, cfg, registry,
			fileserver.Logger(logger))
		if err != nil {
			wrapFatalln("fileserver configuration error", err)
			return
		}

		failed := false
		for _, res := range results {
			for _, b := range res.Backends {
				for _, o := range b.Outcomes {
					fmt.Println(outcomeLine(res.Consumer, b.Name, o))
					if o.State == fileserver.Failed {
						failed = true
					}
				}
				if b.Err != nil {
					fmt.Printf("%s/%s: %v\n", res.Consumer, b.Name, b.Err)
					failed = true
				}
			}
		}
		if failed {
			osExit(1)
		}
	},
}

func outcomeLine(consumer fileserver.Consumer, backend string, o fileserver.SyncOutcome) string {
	line := fmt.Sprintf("%s/%s %s: %s", consumer, backend, o.Source, o.State)
	switch o.State {
	case fileserver.Updated:
		old := o.OldRev
		if old == "" {
			old = "none"
		}
		line += fmt.Sprintf(" (%s -> %s)", old, o.NewRev)
	case fileserver.Failed:
		line += " (" + o.Reason + ")"
	}
	return line
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
