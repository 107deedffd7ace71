package pricing

import "math/big"

// roundQuotient returns num/den rounded half away from zero.
// den must be positive.
func roundQuotient(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, new(big.Int).Set(den), new(big.Int))

	// |2r| >= den rounds away from zero
	r.Abs(r)
	r.Lsh(r, 1)
	if r.Cmp(den) >= 0 {
		if num.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	return q
}

// roundRat rounds a rational to the nearest integer, half away from zero.
func roundRat(r *big.Rat) *big.Int {
	return roundQuotient(r.Num(), r.Denom())
}
