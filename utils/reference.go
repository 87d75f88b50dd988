package utils

import "fmt"

// FormatCollectionReference builds the internal reference carried on
// every issued instrument: LN-{proposalId}-{installmentNumber}.
func FormatCollectionReference(proposalID string, installmentNumber int) string {
	return fmt.Sprintf("LN-%s-%d", proposalID, installmentNumber)
}
