package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zkstark/fri"
)

var fDomainSize uint64

var verifyCmd = &cobra.Command{
	Use:   "verify [proof file]",
	Short: "verifies a proof of proximity",
	Args:  cobra.ExactArgs(1),
	RunE:  cmdVerify,
}

func init() {
	verifyCmd.Flags().Uint64Var(&fDomainSize, "domain-size", 0, "size of the initial evaluation domain (required)")
	_ = verifyCmd.MarkFlagRequired("domain-size")
	rootCmd.AddCommand(verifyCmd)
}

func cmdVerify(cmd *cobra.Command, args []string) error {
	in, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	var proof fri.Proof
	if _, err := proof.ReadFrom(in); err != nil {
		return err
	}

	opts := protocolOptions()
	verifier, err := fri.NewVerifier(fDomainSize, opts)
	if err != nil {
		return err
	}
	ch, err := newChannel(fDomainSize, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := verifier.Verify(&proof, ch); err != nil {
		return fmt.Errorf("proof rejected: %w", err)
	}
	fmt.Printf("proof accepted in %s\n", time.Since(start))
	return nil
}
