package core

// SplitInput is one participant's request input for a split. Share is read by
// EXACT splits, PercentBP (hundredths of a percent) by PERCENT splits.
type SplitInput struct {
	UserID    UserID
	Share     Money
	PercentBP int64
}

const fullPercentBP = 10000

// ComputeShares divides amount among the inputs according to splitType.
// The returned shares follow input order and always sum to amount exactly.
// Leftover cents from EQUAL and PERCENT divisions go one each to the first
// participants.
func ComputeShares(amount Money, splitType SplitType, inputs []SplitInput) ([]Money, error) {
	if err := amount.Validate(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrNoParticipants
	}
	seen := make(map[UserID]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := seen[in.UserID]; dup {
			return nil, ErrDuplicateParticipant
		}
		seen[in.UserID] = struct{}{}
	}

	shares := make([]Money, len(inputs))
	switch splitType {
	case SplitEqual:
		n := int64(len(inputs))
		base := amount.Cents / n
		for i := range shares {
			shares[i] = Money{Cents: base}
		}
		if err := distributeRemainder(shares, amount.Cents-base*n); err != nil {
			return nil, err
		}

	case SplitExact:
		var total int64
		for i, in := range inputs {
			if in.Share.Cents < 0 || in.Share.Cents > amount.Cents {
				return nil, ErrInvalidShare
			}
			shares[i] = in.Share
			total += in.Share.Cents
		}
		if total != amount.Cents {
			return nil, ErrSplitMismatch
		}

	case SplitPercent:
		var totalBP, allocated int64
		for i, in := range inputs {
			if in.PercentBP < 0 || in.PercentBP > fullPercentBP {
				return nil, ErrInvalidShare
			}
			totalBP += in.PercentBP
			shares[i] = Money{Cents: amount.Cents * in.PercentBP / fullPercentBP}
			allocated += shares[i].Cents
		}
		if totalBP != fullPercentBP {
			return nil, ErrPercentTotal
		}
		if err := distributeRemainder(shares, amount.Cents-allocated); err != nil {
			return nil, err
		}

	default:
		return nil, ErrInvalidSplitType
	}
	return shares, nil
}

// distributeRemainder hands one cent each to the first leftover shares.
// Truncating division leaves less than one cent per share, so anything
// outside [0, len(shares)) means the arithmetic went wrong.
func distributeRemainder(shares []Money, leftover int64) error {
	if leftover < 0 || leftover >= int64(len(shares)) {
		return ErrInvalidAmount
	}
	for i := int64(0); i < leftover; i++ {
		shares[i].Cents++
	}
	return nil
}

// Participations builds the participation records of an expense from its
// computed shares.
func Participations(id ExpenseID, payer UserID, inputs []SplitInput, shares []Money) []Participation {
	out := make([]Participation, len(inputs))
	for i, in := range inputs {
		out[i] = Participation{
			ExpenseID:     id,
			PayerID:       payer,
			ParticipantID: in.UserID,
			Share:         shares[i],
		}
	}
	return out
}
