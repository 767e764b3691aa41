package model

// AccountMeta describes one resource handed to the external swap service:
// an identity plus signing-authority and mutability flags.
type AccountMeta struct {
	Address    string
	IsSigner   bool
	IsWritable bool
}

// SwapInstruction is the opaque invocation payload for the external swap
// service. Data is a byte-encoded route the vault never interprets; the
// vault only fixes the program identity and marks its custody address as a
// delegated signer for the single call.
type SwapInstruction struct {
	ProgramID string
	Data      []byte
	Accounts  []AccountMeta
}
