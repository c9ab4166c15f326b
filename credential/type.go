package credential

// Key is the provider's current password key for one account.
type Key struct {
	Modulus  string
	Exponent string

	// Timestamp identifies the key; it must be sent back with the ciphertext.
	Timestamp uint64
}

// Encrypted is a secret sealed with a Key. It is only valid for the begin call
// that follows the key fetch it came from.
type Encrypted struct {
	Ciphertext string
	Timestamp  uint64
}
