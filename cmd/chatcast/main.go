package main

import (
	"fmt"
	"os"

	"github.com/OmriNaor/chatServer/cli"
	"github.com/spf13/cobra"
)

func main() {
	opts := cli.Options{}

	root := &cobra.Command{
		Use:   "chatcast",
		Short: "Interactive client for the chat broadcast server",
		Long: `chatcast connects to a running chat server, sends the lines you type
and prints everything other clients broadcast.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewClient(opts).Run()
		},
		SilenceUsage: true,
	}

	root.Flags().StringVarP(&opts.Host, "host", "H", "127.0.0.1", "server hostname")
	root.Flags().IntVarP(&opts.Port, "port", "p", 7777, "server port")
	root.Flags().BoolVar(&opts.Raw, "raw", false, "raw output (default when stdout is not a tty)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
