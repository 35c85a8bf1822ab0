package cmd

import (
	"context"
	"fmt"

	"github.com/fsmirror/fsmirror/pkg/errors"
	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/fsmirror/fsmirror/pkg/fileserver/backends"
	"github.com/fsmirror/fsmirror/pkg/fileserver/status"
	"github.com/fsmirror/fsmirror/pkg/fsmeta"
	"github.com/spf13/cobra"
)

// backendsCmd shows what an update would drive, without synchronizing
var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List resolved backends and their availability",
	Long: `Backends resolves the configured backend names of each consumer and
reports, per backend, the live instance serving it or why it is excluded.
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		registry := fileserver.NewRegistry(cfg, backends.Factories(),
			fileserver.RegistryLogger(logger))

		for _, consumer := range fileserver.Consumers() {
			tree, _ := cfg.ForConsumer(consumer.String())
			for _, name := range tree.Backends {
				backend, err := registry.Resolve(ctx, consumer, name)
				switch {
				case errors.Is(err, status.ErrUnavailable):
					fmt.Printf("%s/%s: unavailable (%v)\n", consumer, name, err)
				case err != nil:
					wrapFatalln("fileserver configuration error", err)
					return
				default:
					fmt.Printf("%s/%s: %s\n", consumer, name, backend)
				}
			}
		}
		if line, ok := cacheRootOwnership(cfg.CacheRoot); ok {
			fmt.Println(line)
		}
	},
}

// cacheRootOwnership reports who owns the cache root, when the cache root
// exists and the platform can answer
func cacheRootOwnership(path string) (string, bool) {
	owner, err := fsmeta.New().GetOwner(path)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("cache root %s owned by %s:%s", path, owner.User, owner.Group), true
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
