package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketskies/baroscan/internal/holdlist"
)

func newHoldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hold",
		Short: "Manage the held-positions list",
		Long: `Maintains the hold list file. Held tickers always appear in scan
reports and are judged for sell signals instead of buy signals.`,
	}
	cmd.PersistentFlags().String("hold-list", holdlist.DefaultPath, "Hold list file path")

	cmd.AddCommand(&cobra.Command{
		Use:   "add <ticker>",
		Short: "Add a ticker to the hold list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := holdStore(cmd)
			changed, err := store.Add(args[0])
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("added %s\n", args[0])
			} else {
				fmt.Printf("%s already held\n", args[0])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "del <ticker>",
		Aliases: []string{"rm", "remove"},
		Short:   "Remove a ticker from the hold list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := holdStore(cmd)
			changed, err := store.Remove(args[0])
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("removed %s\n", args[0])
			} else {
				fmt.Printf("%s not held\n", args[0])
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the held tickers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := holdStore(cmd)
			symbols, err := store.Symbols()
			if err != nil {
				return err
			}
			if len(symbols) == 0 {
				fmt.Println("hold list is empty")
				return nil
			}
			for _, sym := range symbols {
				fmt.Println(sym)
			}
			return nil
		},
	})

	return cmd
}

func holdStore(cmd *cobra.Command) *holdlist.Store {
	path, _ := cmd.Flags().GetString("hold-list")
	return holdlist.NewStore(path)
}
