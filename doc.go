// Package fri implements FRI (Fast Reed-Solomon Interactive Oracle Proof of
// Proximity), the low-degree test at the core of STARK proof systems.
//
// The prover commits to an evaluation vector, iteratively folds it with
// challenges drawn from a public-coin channel until a small remainder
// codeword is left, then decommits the cosets hit by randomly drawn query
// positions. The verifier replays the channel, checks every decommitment
// against the layer roots, recomputes the folds and checks the remainder's
// degree.
//
// Field arithmetic, FFTs, Merkle trees and the Fiat-Shamir transcript come
// from gnark-crypto; the protocol instance is parametrized by ProofOptions
// and is otherwise stateless across invocations.
package fri
