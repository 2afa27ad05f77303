package service

import "golang.org/x/crypto/bcrypt"

// hashFingerprint bcrypt-hashes a raw device fingerprint before it is
// persisted, so the stored value is never the device secret itself
// (domain.Employee.DeviceFingerprint carries the hash, not the raw
// string).
func hashFingerprint(raw string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// compareFingerprint reports whether raw matches the bcrypt hash
// previously produced by hashFingerprint.
func compareFingerprint(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
