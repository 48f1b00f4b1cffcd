// Command fri proves and verifies proximity to low-degree polynomials over
// files of serialized field elements.
package main

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zkstark/fri"
	"github.com/zkstark/fri/channel"
)

var (
	fFoldingFactor      int
	fBlowupFactor       int
	fNumQueries         int
	fRemainderMaxDegree int
	fSeed               string
)

var rootCmd = &cobra.Command{
	Use:   "fri",
	Short: "fri proves and verifies proximity to low-degree polynomials",
	Long: `fri runs the FRI low-degree test over the BN254 scalar field.

The prover and the verifier must be invoked with the same protocol options
and transcript seed.`,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&fFoldingFactor, "folding", 4, "folding factor (2, 4, 8 or 16)")
	rootCmd.PersistentFlags().IntVar(&fBlowupFactor, "blowup", 8, "blowup factor of the evaluation domain")
	rootCmd.PersistentFlags().IntVar(&fNumQueries, "queries", 32, "number of query positions")
	rootCmd.PersistentFlags().IntVar(&fRemainderMaxDegree, "remainder-degree", 7, "maximum degree of the remainder polynomial")
	rootCmd.PersistentFlags().StringVar(&fSeed, "seed", "", "public seed bound to the transcript")
}

func protocolOptions() fri.ProofOptions {
	return fri.ProofOptions{
		FoldingFactor:      fFoldingFactor,
		BlowupFactor:       fBlowupFactor,
		NumQueries:         fNumQueries,
		RemainderMaxDegree: fRemainderMaxDegree,
	}
}

func newChannel(domainSize uint64, opts fri.ProofOptions) (channel.Channel, error) {
	nbLayers, err := fri.NumLayers(domainSize, opts)
	if err != nil {
		return nil, err
	}
	return channel.NewTranscript(sha256.New(), nbLayers, []byte(fSeed))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(-1)
	}
}
