package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poolkit/poolkit/internal/pagealloc"
	"github.com/poolkit/poolkit/pool"
	"github.com/poolkit/poolkit/pool/protect"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Report the pool manager's platform capabilities",
		Long: `Prints the constants and capabilities the pool manager will run with on
this machine: page and super-page geometry, pool size limits, whether
mappings can be sealed, and which write-protection mode is available.

Example:
  pooltool info`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
}

func runInfo() error {
	fmt.Printf("page size:          %d\n", pagealloc.PageSize())
	fmt.Printf("super page size:    %d\n", pagealloc.SuperPageSize)
	fmt.Printf("max pool size:      %d\n", pool.MaxPoolSize)
	fmt.Printf("default pool size:  %d\n", pool.DefaultPoolSize)

	// Sealing support is only discoverable by trying it on a scratch page.
	sealed := false
	if p := pagealloc.AllocPages(0, pagealloc.PageSize(), pagealloc.Inaccessible, "pooltool"); p != 0 {
		sealed = pagealloc.SealPages(p, pagealloc.PageSize())
		if !sealed {
			pagealloc.FreePages(p, pagealloc.PageSize())
		}
	}
	fmt.Printf("mseal:              %v\n", sealed)

	wp := protect.New(nil)
	defer wp.Close()
	fmt.Printf("write protection:   %s\n", wp.Mode())
	return nil
}
