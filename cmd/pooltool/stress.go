package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/poolkit/poolkit/internal/pagealloc"
	"github.com/poolkit/poolkit/pool"
)

func init() {
	rootCmd.AddCommand(newStressCmd())
}

func newStressCmd() *cobra.Command {
	var (
		ops        int
		superPages int
		seed       int64
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run a synthetic reserve/unreserve workload against a throwaway pool",
		Long: `Reserves a scratch pool, drives a seeded random mix of reserve and
unreserve operations against it, and prints the final accounting. Useful for
eyeballing fragmentation behavior and for exercising the syscall surface on
a new platform.

Example:
  pooltool stress --ops 10000 --super-pages 256`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(ops, superPages, seed)
		},
	}
	cmd.Flags().IntVar(&ops, "ops", 10_000, "Number of operations to run")
	cmd.Flags().IntVar(&superPages, "super-pages", 256, "Pool size in super pages")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	return cmd
}

func runStress(ops, superPages int, seed int64) error {
	m := pool.NewManager()
	base, length, err := pool.ReserveAddressSpace(uintptr(superPages) * pagealloc.SuperPageSize)
	if err != nil {
		return err
	}
	defer pool.FreeReservedAddressSpace(base, length)
	if _, err := m.CreatePool(pool.KindNormal, base, length); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	live := map[uintptr]uintptr{}

	for i := 0; i < ops; i++ {
		if rng.Intn(2) == 0 || len(live) == 0 {
			n := uintptr(1+rng.Intn(8)) * pagealloc.SuperPageSize
			if addr := m.Reserve(pool.KindNormal, 0, n); addr != 0 {
				live[addr] = n
				if verbose {
					fmt.Printf("reserve  %#x+%#x\n", addr, n)
				}
			}
		} else {
			for addr, n := range live {
				m.UnreserveAndDecommit(pool.KindNormal, addr, n)
				delete(live, addr)
				if verbose {
					fmt.Printf("free     %#x+%#x\n", addr, n)
				}
				break
			}
		}
	}

	s, _ := m.Stats(pool.KindNormal)
	fmt.Printf("reserve calls:     %d (%d failed)\n", s.ReserveCalls, s.ReserveFailures)
	fmt.Printf("unreserve calls:   %d\n", s.UnreserveCalls)
	fmt.Printf("outstanding:       %d bytes in %d runs\n", s.BytesOutstanding, len(live))
	fmt.Printf("peak outstanding:  %d bytes\n", s.PeakOutstanding)
	fmt.Printf("largest free run:  %d bytes\n", s.LargestFreeRun)
	return nil
}
