package main

import (
	"fmt"
	"os"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/spf13/cobra"
	"github.com/zkstark/fri"
)

var fProofPath string

var proveCmd = &cobra.Command{
	Use:   "prove [evaluations file]",
	Short: "builds a proof of proximity for a file of evaluations",
	Long: `prove reads an evaluation vector (big-endian field elements, 32 bytes
each, one per domain position) and writes a proof of proximity.`,
	Args: cobra.ExactArgs(1),
	RunE: cmdProve,
}

func init() {
	proveCmd.Flags().StringVarP(&fProofPath, "output", "o", "proof.fri", "path of the output proof")
	rootCmd.AddCommand(proveCmd)
}

func cmdProve(cmd *cobra.Command, args []string) error {
	evals, err := readEvaluations(args[0])
	if err != nil {
		return err
	}
	domainSize := uint64(len(evals))
	opts := protocolOptions()

	prover, err := fri.NewProver(domainSize, opts)
	if err != nil {
		return err
	}
	ch, err := newChannel(domainSize, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	proof, err := prover.BuildProof(evals, ch)
	if err != nil {
		return err
	}

	out, err := os.Create(fProofPath)
	if err != nil {
		return err
	}
	defer out.Close()
	written, err := proof.WriteTo(out)
	if err != nil {
		return err
	}

	fmt.Printf("proved %d evaluations in %s, proof is %d bytes\n", domainSize, time.Since(start), written)
	return nil
}

func readEvaluations(path string) ([]fr.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || len(data)%fr.Bytes != 0 {
		return nil, fmt.Errorf("%s: size must be a non-zero multiple of %d bytes", path, fr.Bytes)
	}
	evals := make([]fr.Element, len(data)/fr.Bytes)
	for i := range evals {
		evals[i].SetBytes(data[i*fr.Bytes : (i+1)*fr.Bytes])
	}
	return evals, nil
}
