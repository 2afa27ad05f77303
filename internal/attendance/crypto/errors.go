package crypto

import "errors"

var (
	errInvalidPEM = errors.New("crypto: no PEM block found in public key")
	errNotRSAKey  = errors.New("crypto: public key is not RSA")
)
