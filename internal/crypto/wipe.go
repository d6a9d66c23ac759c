package crypto

// Wipe overwrites b with zeros.
func Wipe(b []byte) { clear(b) }
