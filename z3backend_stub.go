//go:build !z3

package gortl

func NewZ3Prover() (Prover, error) {
	return nil, ErrNoZ3
}
