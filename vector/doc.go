// Package vector provides the distributed vector used for solutions and
// right-hand sides.
//
// A Vector stores one value per id its rank holds in a partition.Map. Get,
// Set and SumInto address entries by global id and never communicate; they
// fail with ErrNotOwned for ids held elsewhere. Import and Export move
// values between layouts through a partition.Plan, and Dot/Norm2/NormInf
// are collective reductions that count every id once, at its owner.
package vector
