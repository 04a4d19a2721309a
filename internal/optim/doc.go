// Package optim minimizes scalar objective functions.
//
// Minimize runs gonum's Nelder–Mead simplex under explicit iteration,
// evaluation and wall-clock budgets and reports whether the run converged or
// ran out of budget. GridSearch exhaustively scans a coarse parameter lattice
// and is used to seed Minimize when no starting point is known.
//
// Both are deterministic: identical inputs give identical outputs.
package optim
