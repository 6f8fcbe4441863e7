package ports

// SignatureVerifier checks that a message was signed by the given address
type SignatureVerifier interface {
	Verify(message, signature, address string) error
}
